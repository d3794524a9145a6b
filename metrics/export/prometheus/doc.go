// Package prometheus renders guard metrics in Prometheus text exposition format.
//
// [NewPrometheusExporter] accepts one or more guards and exposes an
// [http.Handler]. Each page's guard appears under its own guard_id label;
// the authguard_session_state and authguard_guard_terminated gauges are
// rendered even when counters are disabled.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate guard state.
package prometheus
