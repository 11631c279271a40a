// Package httpapi serves goCaptcha over HTTP with gin.
//
// Routes:
//
//	GET  /captcha              issue a challenge
//	POST /captcha/verify       verify a solution
//	POST /captcha/pass         verify a solution and mint a pass
//	GET  /captcha/pass         validate a bearer pass
//	GET  /metrics              optional, when RouterOptions.Metrics is set
//
// Verification results map to statuses: accepted 200, invalid_solution 422,
// expired 410, invalid_data 400. An unknown expression kind is a 500.
//
// # What this package must NOT do
//
//   - Return the challenge text or envelope to clients.
//   - Keep any per-challenge state.
package httpapi
