package session

import "errors"

var (
	// ErrInvalidToken is returned when a token fails signature or expiry verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenNotFound is returned when a presented refresh token matches no
	// stored record (unknown, already rotated away, or expired and swept).
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrUserNotFound is returned by Login when no account matches the identifier.
	ErrUserNotFound = errors.New("user not found")

	// ErrBadCredentials is returned by Login when the password does not match.
	ErrBadCredentials = errors.New("invalid password")

	// ErrInternal wraps unexpected store or codec failures, including
	// per-operation deadline expiry. It must never be collapsed into the
	// unauthorized family: callers map it to a 5xx, not a 401.
	ErrInternal = errors.New("internal session error")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")
)
