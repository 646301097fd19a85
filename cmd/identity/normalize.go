package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// Lookup by email must always go through the normalized form so that
// "User@X.com" and "user@x.com" resolve to the same account.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
