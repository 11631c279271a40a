// Package internal groups the goCaptcha packages that are private to this module.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: pure issue and verify orchestrators used by Engine
//   - metrics: lock-free counters and the verify latency histogram
//
// # What this package must NOT do
//
//   - Export types that appear in the public goCaptcha API except through aliases
//     declared in the root package.
package internal
