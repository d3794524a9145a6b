// Package token validates the self-describing admin session token issued by the
// external login flow: a fixed prefix followed by the issue timestamp in epoch
// milliseconds and an optional suffix.
//
// # What this package must NOT do
//
//   - Read or write session storage.
//   - Claim integrity: tokens are unsigned and trivially forgeable.
package token
