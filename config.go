package goCaptcha

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goCaptcha/envelope"
	"github.com/MrEthical07/goCaptcha/expression"
	"github.com/MrEthical07/goCaptcha/pass"
)

// Config is the complete engine configuration. Build validates it once; the
// resulting Engine keeps its own copy and never mutates it.
type Config struct {
	Challenge ChallengeConfig
	Keys      KeyConfig
	Verify    VerifyConfig
	Pass      PassConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// ChallengeConfig controls what Issue generates.
type ChallengeConfig struct {
	Mode Mode
	// Duration is added to the issue time to produce validUntil.
	Duration time.Duration
	// CodeLength applies to ModeCode. Zero selects expression.DefaultCodeLength.
	CodeLength int
	// OperandCount applies to ModeMath. Zero selects expression.DefaultOperandCount.
	OperandCount int
}

// KeyConfig carries already-derived keys. Use KeysFromSecrets or KeysFromMaster to fill it.
type KeyConfig struct {
	EncryptionKey envelope.Key
	SignatureKey  envelope.Key
}

// KeysFromSecrets hashes two passphrases into encryption and signature keys.
func KeysFromSecrets(encryptionSecret, signatureSecret string) KeyConfig {
	return KeyConfig{
		EncryptionKey: envelope.DeriveKey(encryptionSecret),
		SignatureKey:  envelope.DeriveKey(signatureSecret),
	}
}

// KeysFromMaster derives both keys from a single high-entropy secret.
func KeysFromMaster(master []byte) (KeyConfig, error) {
	enc, sig, err := envelope.DeriveKeys(master)
	if err != nil {
		return KeyConfig{}, err
	}
	return KeyConfig{EncryptionKey: enc, SignatureKey: sig}, nil
}

// VerifyConfig tunes solution comparison.
type VerifyConfig struct {
	// NormalizeSolution trims the submitted solution and applies Unicode NFKC before the
	// exact comparison. Off by default.
	NormalizeSolution bool
}

// PassConfig controls the JWT pass minted by VerifyAndGrant.
type PassConfig struct {
	Enabled bool
	TTL     time.Duration
	// SigningMethod is "hs256" (default) or "ed25519". hs256 keys are derived from the
	// signature key; ed25519 requires PublicKey and, for issuing, PrivateKey.
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// AuditConfig controls asynchronous audit delivery.
type AuditConfig struct {
	Enabled     bool
	BufferSize  int
	DropIfFull  bool
	SinkTimeout time.Duration
}

// MetricsConfig toggles in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	maxChallengeDuration = 24 * time.Hour
	maxPassTTL           = time.Hour
)

// DefaultConfig returns a math-mode configuration with a 180s challenge lifetime.
// Keys are left empty and must be supplied before Build.
func DefaultConfig() Config {
	return Config{
		Challenge: ChallengeConfig{
			Mode:         ModeMath,
			Duration:     180 * time.Second,
			CodeLength:   expression.DefaultCodeLength,
			OperandCount: expression.DefaultOperandCount,
		},
		Pass: PassConfig{
			Enabled:       false,
			TTL:           5 * time.Minute,
			SigningMethod: string(pass.MethodHS256),
			Issuer:        "gocaptcha",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Pass.PrivateKey = cloneBytes(cfg.Pass.PrivateKey)
	out.Pass.PublicKey = cloneBytes(cfg.Pass.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	// Challenge
	if !expression.Registered(expression.Kind(c.Challenge.Mode)) {
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Challenge.Mode)
	}
	if c.Challenge.Duration <= 0 {
		return errors.New("Challenge Duration must be > 0")
	}
	if c.Challenge.Duration > maxChallengeDuration {
		return errors.New("Challenge Duration must be <= 24h")
	}
	if c.Challenge.CodeLength < 0 || c.Challenge.CodeLength > expression.MaxCodeLength {
		return fmt.Errorf("Challenge CodeLength must be between 0 and %d", expression.MaxCodeLength)
	}
	if c.Challenge.OperandCount != 0 &&
		(c.Challenge.OperandCount < 2 || c.Challenge.OperandCount > expression.MaxOperandCount) {
		return fmt.Errorf("Challenge OperandCount must be 0 or between 2 and %d", expression.MaxOperandCount)
	}

	// Keys
	var zero envelope.Key
	if c.Keys.EncryptionKey == zero || c.Keys.SignatureKey == zero {
		return fmt.Errorf("%w: encryption and signature keys are required", ErrInvalidKeys)
	}
	if c.Keys.EncryptionKey == c.Keys.SignatureKey {
		return fmt.Errorf("%w: encryption and signature keys must differ", ErrInvalidKeys)
	}

	// Pass
	if c.Pass.Enabled {
		if c.Pass.TTL <= 0 || c.Pass.TTL > maxPassTTL {
			return errors.New("Pass TTL must be > 0 and <= 1h")
		}
		if c.Pass.Leeway < 0 || c.Pass.Leeway > time.Minute {
			return errors.New("Pass Leeway must be between 0 and 1m")
		}
		switch pass.SigningMethod(c.Pass.SigningMethod) {
		case "", pass.MethodHS256:
		case pass.MethodEd25519:
			if len(c.Pass.PublicKey) == 0 {
				return errors.New("Pass ed25519 requires PublicKey")
			}
		default:
			return errors.New("Pass SigningMethod must be 'hs256' or 'ed25519'")
		}
		if c.Pass.Issuer != "" && strings.TrimSpace(c.Pass.Issuer) == "" {
			return errors.New("Pass Issuer must not be blank")
		}
		if c.Pass.Audience != "" && strings.TrimSpace(c.Pass.Audience) == "" {
			return errors.New("Pass Audience must not be blank")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Audit.SinkTimeout < 0 {
		return errors.New("Audit SinkTimeout must be >= 0")
	}

	return nil
}
