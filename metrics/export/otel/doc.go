// Package otel binds goCaptcha metrics to OpenTelemetry asynchronous instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter, an
// Int64ObservableGauge per latency bucket, and a gocaptcha_verify_total counter keyed
// by a result attribute. One callback reads [goCaptcha.Engine.MetricsSnapshot] per
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
