// Package envelope implements the symmetric token envelope used by challenge tokens.
//
// A token has the wire form
//
//	<hex HMAC-SHA-256>$<hex IV>:<hex AES-256-CBC ciphertext>
//
// The plaintext is encrypted first, and the signature covers the hex ciphertext envelope.
//
// # Critical Security Notes
//
// Signature verification MUST succeed BEFORE decryption is attempted. Decrypting
// unauthenticated ciphertext exposes padding and chosen-ciphertext oracles. [Open]
// enforces this order; callers composing [VerifyAndExtract] and [Decrypt] by hand must
// keep it.
//
// Signatures are compared with [hmac.Equal] (constant time). Every failure while
// parsing or verifying a token is reported as [ErrSignatureMismatch] so callers cannot
// tell which step rejected it.
//
// Each call to [Encrypt] draws a fresh random IV; IVs are never reused for a key.
//
// # Key Management
//
// [DeriveKey] hashes a passphrase to a 32-byte key with SHA-256. [DeriveKeys] expands a
// single master secret into independent encryption and signature keys with HKDF-SHA-256.
package envelope
