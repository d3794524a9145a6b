// Package otel publishes guard metrics through OpenTelemetry observable
// instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter family,
// gauges for the session state and termination flag, and one gauge per
// latency bucket. A single callback reads [authguard.Guard.Status] on each
// collection cycle and tags every measurement with the guard_id attribute.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate guard state.
package otel
