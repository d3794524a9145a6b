// Package audit implements async dispatching of guard transition events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, slog, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//     [Dispatcher.Flush] waits for queued events; the guard calls it after every redirect.
//   - [Event]: structured record with timestamp, type, guard id, state and reason.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that belongs to the Guard.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on guard logic.
//   - Import authguard or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
