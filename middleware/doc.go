// Package middleware exposes net/http adapters that gate handlers on goCaptcha.
//
// # Guards
//
//   - [RequireSolved] verifies the X-Captcha-Token and X-Captcha-Solution headers.
//   - [RequirePass] validates a pass minted by Engine.VerifyAndGrant, sent as a
//     bearer token.
//
// Each guard stores its outcome in the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Every decision is
// delegated to Engine.Verify or Engine.ValidatePass.
//
// # What this package must NOT do
//
//   - Decrypt tokens or parse passes directly.
//   - Remember which challenges were solved.
package middleware
