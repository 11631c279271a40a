// Package goCaptcha issues and verifies stateless challenge tokens.
//
// A challenge is a small puzzle (an arithmetic expression or a random code) packed
// with its expiry into an encrypted, signed token. The client carries the token back
// with its answer; the server verifies the signature, decrypts, checks expiry, and
// re-solves the puzzle from the token alone. Nothing is stored between issue and
// verify.
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// goCaptcha is the public surface. It exposes [Engine], [Builder], [Config], [Result]
// and [Challenge]. Puzzle variants live in expression/, the token cipher in envelope/,
// and issue/verify orchestration in internal/flows.
//
// # What this package must NOT do
//
//   - Persist or remember issued challenges. Each token verifies on its own.
//   - Reveal to callers which check rejected a token beyond the four [Result] values.
//   - Log tokens, envelopes, or submitted solutions.
//   - Compensate for clock skew between issuing and verifying hosts.
package goCaptcha
