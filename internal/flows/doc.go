// Package flows contains pure-function orchestrators for the guard's
// transitions.
//
// Each flow function (RunCheck, RunFocusCheck, RunTeardown) accepts a typed
// dependency struct and returns a classified result without side effects
// beyond those dependencies. The Guard owns state, locking, prompts and
// metrics; flows only decide.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authguard (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency interfaces.
package flows
