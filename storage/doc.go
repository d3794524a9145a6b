// Package storage defines the string key-value port the guard persists session
// state through, plus the backends that implement it: an in-process map, a
// Redis keyspace, and a JSON file on disk.
//
// Backends model browser-local storage: values are plain strings, a missing
// key is not an error, and removing a missing key succeeds. Backends that can
// observe writes from other processes also implement [Watcher], the analogue
// of the browser "storage" event.
//
// # What this package must NOT do
//
//   - Interpret keys or values (that belongs to package session).
//   - Coordinate or lock across writers.
package storage
