package goCaptcha

import "time"

// SecurityReport summarizes the security-relevant configuration of an Engine.
// It contains key fingerprints, never key material.
type SecurityReport struct {
	Mode                  Mode
	ChallengeDuration     time.Duration
	EncryptionKeyID       string
	SignatureKeyID        string
	Cipher                string
	Signature             string
	NormalizeSolution     bool
	PassEnabled           bool
	PassSigningMethod     string
	PassTTL               time.Duration
	AuditEnabled          bool
	RendererConfigured    bool
	ReplayProtection      bool
	ClockSkewCompensation bool
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	report := SecurityReport{
		Mode:               e.config.Challenge.Mode,
		ChallengeDuration:  e.config.Challenge.Duration,
		EncryptionKeyID:    e.config.Keys.EncryptionKey.Fingerprint(),
		SignatureKeyID:     e.config.Keys.SignatureKey.Fingerprint(),
		Cipher:             "aes-256-cbc",
		Signature:          "hmac-sha256",
		NormalizeSolution:  e.config.Verify.NormalizeSolution,
		PassEnabled:        e.passes != nil,
		AuditEnabled:       e.audit != nil,
		RendererConfigured: e.renderer != nil,
		// Tokens are self-verifying; nothing tracks redeemed challenges.
		ReplayProtection:      false,
		ClockSkewCompensation: false,
	}
	if e.passes != nil {
		report.PassSigningMethod = e.config.Pass.SigningMethod
		if report.PassSigningMethod == "" {
			report.PassSigningMethod = "hs256"
		}
		report.PassTTL = e.passes.TTL()
	}
	return report
}
