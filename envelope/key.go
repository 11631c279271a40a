package envelope

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the size of encryption and signature keys in bytes.
	KeySize = 32

	// MinMasterSecretSize is the shortest master secret accepted by DeriveKeys.
	MinMasterSecretSize = 16

	encryptionInfo = "gocaptcha:encryption:v1"
	signatureInfo  = "gocaptcha:signature:v1"
)

// Key is a fixed-length symmetric key.
type Key [KeySize]byte

// DeriveKey hashes an arbitrary passphrase into a Key. The same secret always yields the same key.
func DeriveKey(secret string) Key {
	return Key(sha256.Sum256([]byte(secret)))
}

// DeriveKeys expands one master secret into independent encryption and signature keys (HKDF-SHA-256).
func DeriveKeys(master []byte) (enc Key, sig Key, err error) {
	if len(master) < MinMasterSecretSize {
		return enc, sig, fmt.Errorf("%w: got %d bytes, want at least %d", ErrInvalidMasterSecret, len(master), MinMasterSecretSize)
	}
	if err = expand(master, encryptionInfo, enc[:]); err != nil {
		return Key{}, Key{}, err
	}
	if err = expand(master, signatureInfo, sig[:]); err != nil {
		return Key{}, Key{}, err
	}
	return enc, sig, nil
}

// Derive expands k into a subkey bound to label. Used to key secondary primitives,
// such as pass signing, without reusing k directly.
func (k Key) Derive(label string) (Key, error) {
	var out Key
	if err := expand(k[:], label, out[:]); err != nil {
		return Key{}, err
	}
	return out, nil
}

func expand(master []byte, info string, out []byte) error {
	reader := hkdf.New(sha256.New, master, nil, []byte(info))
	if _, err := io.ReadFull(reader, out); err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}
	return nil
}

// String hides key material from logs and fmt verbs.
func (k Key) String() string {
	return "envelope.Key(redacted)"
}

// Fingerprint returns a short non-secret identifier for the key, safe to log.
func (k Key) Fingerprint() string {
	sum := sha256.Sum256(k[:])
	return hex.EncodeToString(sum[:4])
}
