package envelope

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testEncKey = DeriveKey("encryption passphrase")
	testSigKey = DeriveKey("signature passphrase")
)

func TestDeriveKeyDeterministic(t *testing.T) {
	a := DeriveKey("correct horse")
	b := DeriveKey("correct horse")
	c := DeriveKey("battery staple")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotContains(t, a.String(), hex.EncodeToString(a[:]))
	assert.Len(t, a.Fingerprint(), 8)
}

func TestDeriveKeysSeparatesPurposes(t *testing.T) {
	enc, sig, err := DeriveKeys([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	assert.NotEqual(t, enc, sig)

	enc2, sig2, err := DeriveKeys([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	assert.Equal(t, enc, enc2)
	assert.Equal(t, sig, sig2)

	_, _, err = DeriveKeys([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidMasterSecret)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, p := range []string{"", "a", "exactly16bytes!!", `{"validUntil":1,"expression":{"type":"code","code":"abcde"}}`, strings.Repeat("x", 1000)} {
		sealed, err := Encrypt(p, testEncKey)
		require.NoError(t, err)

		ivHex, ctHex, ok := strings.Cut(sealed, IVSeparator)
		require.True(t, ok)
		assert.Len(t, ivHex, 32)
		assert.NotEmpty(t, ctHex)

		got, err := Decrypt(sealed, testEncKey)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestEncryptUsesFreshIV(t *testing.T) {
	a, err := Encrypt("same", testEncKey)
	require.NoError(t, err)
	b, err := Encrypt("same", testEncKey)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptMalformed(t *testing.T) {
	sealed, err := Encrypt("payload", testEncKey)
	require.NoError(t, err)
	ivHex, ctHex, _ := strings.Cut(sealed, IVSeparator)

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"no separator", ivHex + ctHex, ErrMalformedCiphertext},
		{"bad iv hex", "zz" + ivHex[2:] + ":" + ctHex, ErrMalformedCiphertext},
		{"short iv", ivHex[:30] + ":" + ctHex, ErrMalformedCiphertext},
		{"bad ciphertext hex", ivHex + ":" + ctHex + "g", ErrMalformedCiphertext},
		{"empty ciphertext", ivHex + ":", ErrDecryptionFailed},
		{"misaligned ciphertext", ivHex + ":" + ctHex[:30], ErrDecryptionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.input, testEncKey)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecryptWrongKeyFailsOrGarbles(t *testing.T) {
	sealed, err := Encrypt("payload", testEncKey)
	require.NoError(t, err)

	got, err := Decrypt(sealed, DeriveKey("other"))
	if err == nil {
		assert.NotEqual(t, "payload", got)
		return
	}
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestSignIsHexHMAC(t *testing.T) {
	sig := Sign("message", testSigKey)
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, Sign("message", testSigKey))
	assert.NotEqual(t, sig, Sign("message", testEncKey))
}

func TestEncryptAndSignRoundTrip(t *testing.T) {
	token, err := EncryptAndSign("hello", testEncKey, testSigKey)
	require.NoError(t, err)

	sig, sealed, ok := strings.Cut(token, SignatureSeparator)
	require.True(t, ok)
	assert.Equal(t, Sign(sealed, testSigKey), sig)

	msg, err := VerifyAndExtract(token, testSigKey)
	require.NoError(t, err)
	assert.Equal(t, sealed, msg)

	plain, err := Open(token, testEncKey, testSigKey)
	require.NoError(t, err)
	assert.Equal(t, "hello", plain)
}

func TestVerifyAndExtractRejects(t *testing.T) {
	token, err := EncryptAndSign("hello", testEncKey, testSigKey)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":          "",
		"no separator":   strings.Replace(token, SignatureSeparator, "", 1),
		"wrong key":      token,
		"non-hex sig":    "zz" + token[2:],
		"truncated sig":  token[2:],
		"only separator": SignatureSeparator,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			key := testSigKey
			if name == "wrong key" {
				key = DeriveKey("attacker")
			}
			_, err := VerifyAndExtract(input, key)
			assert.ErrorIs(t, err, ErrSignatureMismatch)
		})
	}
}

func TestOpenRejectsEveryCharacterFlip(t *testing.T) {
	token, err := EncryptAndSign(`{"validUntil":1}`, testEncKey, testSigKey)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		b := []byte(token)
		if b[i] == 'a' {
			b[i] = 'b'
		} else {
			b[i] = 'a'
		}
		_, err := Open(string(b), testEncKey, testSigKey)
		require.Error(t, err, "flip at %d accepted", i)
	}
}

func TestVerifyRejectsSignatureCaseChange(t *testing.T) {
	token, err := EncryptAndSign(`{"validUntil":1}`, testEncKey, testSigKey)
	require.NoError(t, err)

	sigHex, sealed, ok := strings.Cut(token, SignatureSeparator)
	require.True(t, ok)

	changed := 0
	for i := 0; i < len(sigHex); i++ {
		c := sigHex[i]
		if c < 'a' || c > 'f' {
			continue
		}
		b := []byte(token)
		b[i] = c - 'a' + 'A'
		_, err := VerifyAndExtract(string(b), testSigKey)
		assert.ErrorIs(t, err, ErrSignatureMismatch, "uppercase at %d accepted", i)
		changed++
	}
	require.Positive(t, changed)

	_, err = VerifyAndExtract(strings.ToUpper(sigHex)+SignatureSeparator+sealed, testSigKey)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestKeyDeriveIsLabelBound(t *testing.T) {
	a, err := testSigKey.Derive("gocaptcha:pass:v1")
	require.NoError(t, err)
	b, err := testSigKey.Derive("gocaptcha:pass:v1")
	require.NoError(t, err)
	c, err := testSigKey.Derive("other")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, testSigKey, a)
}
