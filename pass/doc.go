// Package pass mints and verifies short-lived JWT passes that attest a challenge
// was solved.
//
// A pass is stateless like the challenge token it replaces: it carries the
// challenge mode and kind, a random jti, and an expiry. Nothing records which
// passes were redeemed, so a pass can be presented more than once until it expires.
package pass
