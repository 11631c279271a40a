// Package flows contains pure-function orchestrators for the challenge protocol.
//
// [RunIssue] and [RunVerify] accept a typed dependency struct (clock, keys, generator)
// and return classified results. They hold no state between calls, so the Engine can
// invoke them concurrently without locking.
//
// # Verification order
//
//  1. Signature check (envelope.VerifyAndExtract).
//  2. Decryption.
//  3. Payload parse.
//  4. Expiry against the embedded validUntil.
//  5. Expression dispatch by kind tag.
//  6. Constant-time comparison of the solution.
//
// Steps 1-3 and any malformed expression collapse into OutcomeInvalidData. An
// unregistered kind is not an outcome: it is returned as a fatal error because it
// means issuer and verifier disagree on the variant set.
//
// # What this package must NOT do
//
//   - Import goCaptcha (to avoid import cycles).
//   - Emit metrics, audit events, or logs; the Engine owns those.
package flows
