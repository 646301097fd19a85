// Package session implements Folio's credential-based session lifecycle.
//
// It issues short-lived signed access tokens and longer-lived refresh
// tokens, persists refresh-token state, validates presented tokens, and
// revokes stored tokens defensively when a lookup hit fails signature
// verification.
//
// Access tokens are self-contained JWTs (HS256, access secret, 1h expiry)
// and are never persisted. Refresh tokens are JWTs signed with a separate
// refresh secret and carry no expiry claim: their validity window lives
// only in the store, so a record can be revoked early without touching
// the token itself. Expired records become unreachable passively, either
// via the Postgres sweeper or via Redis key TTLs.
//
// HTTP transport integration is intentionally out of scope here.
package session
