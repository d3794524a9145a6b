// Package internal holds the guard's private sub-packages.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for the check and teardown transitions
//
// # What this package must NOT do
//
//   - Export types that appear in the public authguard API.
//   - Be imported by any package outside the authguard module.
package internal
