// Package authguard guards admin pages with a locally stored session: it
// validates the stored token on page load and window focus, expires the session
// after a quiet period without input, and tears down every persisted session
// key before sending the user back to the login page.
//
// The guard performs no network calls of its own and holds no authority in
// memory. The storage backend is the single source of truth; the guard
// recomputes [State] from it on every check.
//
// # Architecture boundaries
//
// authguard is the public surface. It exposes [Guard], [Builder], [Config],
// the event model and the host capability ports ([Prompt], [Navigator],
// [Clock]). Storage backends live in package storage, key layout and profile
// decoding in session, token rules in token, the countdown in inactivity and
// profile projection in render.
//
// # What this package must NOT do
//
//   - Act as a security boundary: tokens are unsigned and readable by any script
//     on the origin.
//   - Leave a partially cleared session behind on any failure path.
//   - Let an error escape an event handler; every failure resolves to
//     "not authenticated".
package authguard
