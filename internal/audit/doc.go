// Package audit implements async event dispatching for challenge issuance and verification.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, fan-out, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured audit record with ID, timestamp, type, mode, result, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on verification outcome.
//   - Import goCaptcha or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
