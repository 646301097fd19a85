package identity

import (
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances brute-force resistance against login latency.
// 10 matches the work factor the stored hashes were created with.
const bcryptCost = 10

var (
	// ErrPasswordPolicy is returned when a plaintext password fails the policy check.
	ErrPasswordPolicy = errors.New("password must be at least 6 characters long and contain at least one letter and one number")

	// ErrEmailFormat is returned when an email fails the format check.
	ErrEmailFormat = errors.New("email must be a valid email address")
)

var (
	hasLetterRe = regexp.MustCompile(`[a-zA-Z]`)
	hasDigitRe  = regexp.MustCompile(`\d`)
	emailRe     = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// HashPassword returns a bcrypt hash of the plaintext password.
// Policy checks are the caller's responsibility (ValidatePassword);
// hashing itself only rejects inputs bcrypt cannot handle.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword checks a plaintext candidate against a stored bcrypt hash.
// It returns (false, nil) for a clean mismatch and a non-nil error only for
// malformed hashes or other unexpected failures.
func VerifyPassword(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// ValidatePassword enforces the account password policy:
// at least 6 characters, at least one letter, at least one digit.
func ValidatePassword(plain string) error {
	if len(plain) < 6 || !hasLetterRe.MatchString(plain) || !hasDigitRe.MatchString(plain) {
		return ErrPasswordPolicy
	}
	return nil
}

// ValidateEmail enforces a minimal structural email check.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return ErrEmailFormat
	}
	return nil
}
