package envelope

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignatureSeparator joins the hex signature and the signed message in a token.
const SignatureSeparator = "$"

// Sign returns the hex HMAC-SHA-256 of message under key.
func Sign(message string, key Key) string {
	return hex.EncodeToString(mac(message, key))
}

func mac(message string, key Key) []byte {
	h := hmac.New(sha256.New, key[:])
	h.Write([]byte(message))
	return h.Sum(nil)
}

// VerifyAndExtract checks the signature of token and returns the signed message.
//
// The signature must match the lowercase hex produced by Sign character for character;
// an uppercase or otherwise re-encoded signature is rejected. Every failure yields
// ErrSignatureMismatch.
func VerifyAndExtract(token string, key Key) (message string, err error) {
	defer func() {
		if r := recover(); r != nil {
			message, err = "", ErrSignatureMismatch
		}
	}()

	sigHex, msg, ok := strings.Cut(token, SignatureSeparator)
	if !ok {
		return "", ErrSignatureMismatch
	}
	if subtle.ConstantTimeCompare([]byte(sigHex), []byte(Sign(msg, key))) != 1 {
		return "", ErrSignatureMismatch
	}
	return msg, nil
}

// EncryptAndSign encrypts plaintext under encKey and prefixes the signature of the ciphertext envelope.
func EncryptAndSign(plaintext string, encKey, sigKey Key) (string, error) {
	sealed, err := Encrypt(plaintext, encKey)
	if err != nil {
		return "", err
	}
	return Sign(sealed, sigKey) + SignatureSeparator + sealed, nil
}

// Open verifies token under sigKey and only then decrypts it under encKey.
func Open(token string, encKey, sigKey Key) (string, error) {
	sealed, err := VerifyAndExtract(token, sigKey)
	if err != nil {
		return "", err
	}
	return Decrypt(sealed, encKey)
}
