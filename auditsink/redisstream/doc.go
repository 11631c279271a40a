// Package redisstream provides an audit sink that appends goCaptcha audit events to a
// Redis stream with XADD.
//
// Each entry carries the event type, the event ID, and the JSON-encoded event under
// "payload". The stream is trimmed with MAXLEN on every append.
//
// # What this package must NOT do
//
//   - Store challenge or pass state. Redis receives audit records only.
//   - Block the engine. Delivery runs on the audit dispatcher goroutine and is bounded
//     by the dispatcher's SinkTimeout.
package redisstream
