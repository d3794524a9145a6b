// Package internaldefs holds the metric families shared by the exporters.
//
// Guard counters are grouped into families with at most one label besides
// guard_id (result, cause or stage), so the Prometheus and OTel exporters
// publish identical names, label values and bucket boundaries. The status
// series (session state, termination, audit outcomes) are read from
// [authguard.Status] rather than from counters.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
