// Package session reads and clears the persisted admin session: the token,
// the JSON profile paired with it, and the remember-me flag the login flow
// leaves behind.
//
// # Architecture boundaries
//
// This package owns the storage key layout and profile decoding. It does NOT
// judge token validity (package token) or decide what a failed read means for
// the page (the guard fails closed on every error returned here).
//
// # What this package must NOT do
//
//   - Cache session state in memory: the backend is the only authority.
//   - Leave a partially cleared session behind when some removals fail.
package session
