// Package identity owns Folio's user records and credential verification.
//
// It stores users in PostgreSQL, normalizes emails for case-insensitive
// lookup, and verifies passwords against bcrypt hashes. The password hash
// never leaves this package except as an opaque string on UserAuth; API
// layers must only ever serialize User.
package identity
