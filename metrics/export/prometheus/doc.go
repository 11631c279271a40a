// Package prometheus exposes goCaptcha metrics through client_golang.
//
// [NewPrometheusExporter] wraps a [goCaptcha.Engine] in a Collector that builds
// const metrics from MetricsSnapshot on every scrape. Counters are named
// gocaptcha_*_total; the single histogram is gocaptcha_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers mount Handler or
//     register the exporter themselves.
//   - Mutate engine state.
package prometheus
