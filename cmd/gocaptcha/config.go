package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	goCaptcha "github.com/MrEthical07/goCaptcha"
	"github.com/MrEthical07/goCaptcha/render"
	"gopkg.in/yaml.v3"
)

const (
	envEncryptionSecret = "GOCAPTCHA_ENCRYPTION_SECRET"
	envSignatureSecret  = "GOCAPTCHA_SIGNATURE_SECRET"
	envMasterSecret     = "GOCAPTCHA_MASTER_SECRET"

	miniRedisAddr = "mini"
)

// fileConfig is the YAML layout of the config file. Zero fields keep defaults.
type fileConfig struct {
	Challenge struct {
		Mode         string        `yaml:"mode"`
		Duration     time.Duration `yaml:"duration"`
		CodeLength   int           `yaml:"code_length"`
		OperandCount int           `yaml:"operand_count"`
	} `yaml:"challenge"`

	Keys struct {
		EncryptionSecret string `yaml:"encryption_secret"`
		SignatureSecret  string `yaml:"signature_secret"`
		MasterSecret     string `yaml:"master_secret"`
	} `yaml:"keys"`

	Verify struct {
		NormalizeSolution bool `yaml:"normalize_solution"`
	} `yaml:"verify"`

	Pass struct {
		Enabled  bool          `yaml:"enabled"`
		TTL      time.Duration `yaml:"ttl"`
		Issuer   string        `yaml:"issuer"`
		Audience string        `yaml:"audience"`
		Leeway   time.Duration `yaml:"leeway"`
	} `yaml:"pass"`

	Render struct {
		Disabled        bool   `yaml:"disabled"`
		Width           int    `yaml:"width"`
		Height          int    `yaml:"height"`
		FontSize        int    `yaml:"font_size"`
		Noise           *int   `yaml:"noise"`
		BackgroundColor string `yaml:"background_color"`
		TextColor       string `yaml:"text_color"`
		FontFile        string `yaml:"font_file"`
	} `yaml:"render"`

	Audit struct {
		Enabled     bool          `yaml:"enabled"`
		BufferSize  int           `yaml:"buffer_size"`
		SinkTimeout time.Duration `yaml:"sink_timeout"`
		Stream      string        `yaml:"stream"`
		RedisAddr   string        `yaml:"redis_addr"`
	} `yaml:"audit"`

	Server struct {
		Addr    string `yaml:"addr"`
		Metrics *bool  `yaml:"metrics"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// appConfig is everything the commands need, resolved from defaults, file, and env.
type appConfig struct {
	Engine      goCaptcha.Config
	Render      render.Options
	RenderOn    bool
	AuditStream string
	RedisAddr   string
	Addr        string
	Metrics     bool
	LogLevel    slog.Level
	LogFormat   string
}

func defaultAppConfig() appConfig {
	return appConfig{
		Engine:    goCaptcha.DefaultConfig(),
		Render:    render.DefaultOptions(),
		RenderOn:  true,
		Addr:      ":8080",
		Metrics:   true,
		LogLevel:  slog.LevelInfo,
		LogFormat: "text",
	}
}

// loadConfig layers the YAML file at path (optional) and environment secrets over
// the defaults.
func loadConfig(path string, getenv func(string) string) (appConfig, error) {
	cfg := defaultAppConfig()

	var fc fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := getenv(envEncryptionSecret); v != "" {
		fc.Keys.EncryptionSecret = v
	}
	if v := getenv(envSignatureSecret); v != "" {
		fc.Keys.SignatureSecret = v
	}
	if v := getenv(envMasterSecret); v != "" {
		fc.Keys.MasterSecret = v
	}

	if err := fc.apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *appConfig) error {
	ch := &cfg.Engine.Challenge
	if fc.Challenge.Mode != "" {
		ch.Mode = goCaptcha.Mode(fc.Challenge.Mode)
	}
	if fc.Challenge.Duration != 0 {
		ch.Duration = fc.Challenge.Duration
	}
	if fc.Challenge.CodeLength != 0 {
		ch.CodeLength = fc.Challenge.CodeLength
	}
	if fc.Challenge.OperandCount != 0 {
		ch.OperandCount = fc.Challenge.OperandCount
	}

	switch {
	case fc.Keys.MasterSecret != "":
		keys, err := goCaptcha.KeysFromMaster([]byte(fc.Keys.MasterSecret))
		if err != nil {
			return fmt.Errorf("master secret: %w", err)
		}
		cfg.Engine.Keys = keys
	case fc.Keys.EncryptionSecret != "" && fc.Keys.SignatureSecret != "":
		cfg.Engine.Keys = goCaptcha.KeysFromSecrets(fc.Keys.EncryptionSecret, fc.Keys.SignatureSecret)
	default:
		return fmt.Errorf("keys: set %s and %s, or %s", envEncryptionSecret, envSignatureSecret, envMasterSecret)
	}

	cfg.Engine.Verify.NormalizeSolution = fc.Verify.NormalizeSolution

	p := &cfg.Engine.Pass
	p.Enabled = fc.Pass.Enabled
	if fc.Pass.TTL != 0 {
		p.TTL = fc.Pass.TTL
	}
	if fc.Pass.Issuer != "" {
		p.Issuer = fc.Pass.Issuer
	}
	p.Audience = fc.Pass.Audience
	p.Leeway = fc.Pass.Leeway

	r := &cfg.Render
	cfg.RenderOn = !fc.Render.Disabled
	if fc.Render.Width != 0 {
		r.Width = fc.Render.Width
	}
	if fc.Render.Height != 0 {
		r.Height = fc.Render.Height
	}
	if fc.Render.FontSize != 0 {
		r.FontSize = fc.Render.FontSize
	}
	if fc.Render.Noise != nil {
		r.Noise = *fc.Render.Noise
	}
	r.BackgroundColor = fc.Render.BackgroundColor
	if fc.Render.TextColor != "" {
		r.TextColor = fc.Render.TextColor
	}
	if fc.Render.FontFile != "" {
		font, err := os.ReadFile(fc.Render.FontFile)
		if err != nil {
			return fmt.Errorf("render font: %w", err)
		}
		r.Font = font
	}

	a := &cfg.Engine.Audit
	a.Enabled = fc.Audit.Enabled
	if fc.Audit.BufferSize != 0 {
		a.BufferSize = fc.Audit.BufferSize
	}
	a.SinkTimeout = fc.Audit.SinkTimeout
	cfg.AuditStream = fc.Audit.Stream
	cfg.RedisAddr = fc.Audit.RedisAddr

	if fc.Server.Addr != "" {
		cfg.Addr = fc.Server.Addr
	}
	if fc.Server.Metrics != nil {
		cfg.Metrics = *fc.Server.Metrics
	}

	if fc.Log.Level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(fc.Log.Level)); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
	}
	switch strings.ToLower(fc.Log.Format) {
	case "":
	case "text", "json":
		cfg.LogFormat = strings.ToLower(fc.Log.Format)
	default:
		return errors.New("log format must be 'text' or 'json'")
	}

	return cfg.Engine.Validate()
}

func (c appConfig) logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
