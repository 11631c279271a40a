// Package metrics provides lock-free counters and a latency histogram for
// challenge issuance and verification.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically via [sync/atomic.AddUint64]. The verify latency histogram uses 8
// fixed buckets (≤50µs … +Inf). Both are allocation-free on the write path.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation. Metric export
// (Prometheus, OTel) lives in metrics/export/ and reads Snapshot values.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import goCaptcha or any sibling package.
//   - Expose global metric registries.
package metrics
