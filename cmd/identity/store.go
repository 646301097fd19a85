package identity

import "time"

// User is Folio's canonical account record, safe to serialize.
// The password hash deliberately lives on UserAuth, not here.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// UserAuth pairs a user with its stored credential hash for login checks.
type UserAuth struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a user registration request.
// Password must already satisfy ValidatePassword; the store hashes it.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Now      time.Time
}

// UpdateUserInput carries the optional fields of a user update.
// Nil fields are left unchanged. Password, when set, is re-hashed.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
}
