package goCaptcha

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goCaptcha/internal/audit"
	"github.com/MrEthical07/goCaptcha/pass"
)

const passKeyLabel = "gocaptcha:pass:v1"

// Builder assembles an immutable [Engine]. A Builder can be built once.
type Builder struct {
	config Config

	renderer  Renderer
	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithKeys replaces only the key section of the current config.
func (b *Builder) WithKeys(keys KeyConfig) *Builder {
	b.config.Keys = keys
	return b
}

// WithRenderer sets the collaborator that turns puzzle text into Challenge.Image.
// Without one, Image is left empty.
func (b *Builder) WithRenderer(r Renderer) *Builder {
	b.renderer = r
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. The default discards everything.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides the wall clock used for validUntil and expiry checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:   cfg,
		renderer: b.renderer,
		logger:   logger.With(slog.String("component", "gocaptcha")),
		now:      now,
		metrics:  NewMetrics(cfg.Metrics),
	}

	if cfg.Pass.Enabled {
		pm, err := newPassManager(cfg, now)
		if err != nil {
			return nil, fmt.Errorf("pass manager: %w", err)
		}
		engine.passes = pm
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:     cfg.Audit.Enabled,
		BufferSize:  cfg.Audit.BufferSize,
		DropIfFull:  cfg.Audit.DropIfFull,
		SinkTimeout: cfg.Audit.SinkTimeout,
	}, b.auditSink)

	b.built = true

	engine.logger.Info("engine built",
		slog.String("mode", string(cfg.Challenge.Mode)),
		slog.Duration("duration", cfg.Challenge.Duration),
		slog.String("encryption_key", cfg.Keys.EncryptionKey.Fingerprint()),
		slog.String("signature_key", cfg.Keys.SignatureKey.Fingerprint()),
		slog.Bool("pass_enabled", cfg.Pass.Enabled),
	)

	return engine, nil
}

func newPassManager(cfg Config, now func() time.Time) (*pass.Manager, error) {
	pc := pass.Config{
		TTL:      cfg.Pass.TTL,
		Issuer:   cfg.Pass.Issuer,
		Audience: cfg.Pass.Audience,
		Leeway:   cfg.Pass.Leeway,
		Now:      now,
	}

	switch pass.SigningMethod(cfg.Pass.SigningMethod) {
	case pass.MethodEd25519:
		pc.SigningMethod = pass.MethodEd25519
		pc.PrivateKey = cloneBytes(cfg.Pass.PrivateKey)
		pc.PublicKey = cloneBytes(cfg.Pass.PublicKey)
	default:
		key, err := cfg.Keys.SignatureKey.Derive(passKeyLabel)
		if err != nil {
			return nil, err
		}
		pc.SigningMethod = pass.MethodHS256
		pc.PrivateKey = key[:]
	}

	return pass.NewManager(pc)
}
