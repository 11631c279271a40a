package envelope

import "errors"

var (
	// ErrMalformedCiphertext is returned when the IV separator is missing or a segment is not valid hex.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")

	// ErrDecryptionFailed is returned when the cipher rejects block alignment or padding.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrSignatureMismatch is returned for any token whose signature does not verify,
	// including tokens that cannot be parsed at all.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrInvalidMasterSecret is returned when a master secret is too short for key derivation.
	ErrInvalidMasterSecret = errors.New("invalid master secret")
)
