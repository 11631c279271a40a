package goCaptcha

import (
	"io"
	"time"

	"github.com/MrEthical07/goCaptcha/expression"
	internalaudit "github.com/MrEthical07/goCaptcha/internal/audit"
	internalmetrics "github.com/MrEthical07/goCaptcha/internal/metrics"
)

// Mode selects which expression variant Issue generates.
type Mode string

const (
	// ModeMath issues arithmetic challenges such as "5-8".
	ModeMath Mode = Mode(expression.KindMath)
	// ModeCode issues random base-36 codes.
	ModeCode Mode = Mode(expression.KindCode)
)

// Result is the terminal outcome of a verification. Results are values, not errors:
// every malformed, forged, expired, or wrong submission maps to one of them.
type Result int

const (
	// ResultInvalidData covers bad signatures, undecryptable payloads, and malformed
	// envelopes alike, so callers cannot learn which check failed.
	ResultInvalidData Result = iota
	ResultExpired
	ResultInvalidSolution
	ResultAccepted
)

func (r Result) String() string {
	switch r {
	case ResultAccepted:
		return "accepted"
	case ResultExpired:
		return "expired"
	case ResultInvalidSolution:
		return "invalid_solution"
	default:
		return "invalid_data"
	}
}

// Accepted reports whether r is ResultAccepted.
func (r Result) Accepted() bool {
	return r == ResultAccepted
}

// Challenge is a freshly issued puzzle.
//
// Token and Image go to the client. Envelope is the unencrypted payload and Text the
// canonical puzzle text; neither must be sent to the client.
type Challenge struct {
	Token      string
	Image      string
	ValidUntil time.Time
	Mode       Mode
	Text       string
	Envelope   string
}

// Renderer turns canonical puzzle text into an image document. The returned string is
// passed through to Challenge.Image unmodified.
type Renderer interface {
	Render(text string) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(text string) (string, error)

func (f RendererFunc) Render(text string) (string, error) { return f(text) }

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// MultiSink fans events out to several sinks.
type MultiSink = internalaudit.MultiSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a counter or histogram in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricIssueSuccess          = internalmetrics.MetricIssueSuccess
	MetricIssueFailure          = internalmetrics.MetricIssueFailure
	MetricVerifyAccepted        = internalmetrics.MetricVerifyAccepted
	MetricVerifyInvalidData     = internalmetrics.MetricVerifyInvalidData
	MetricVerifyExpired         = internalmetrics.MetricVerifyExpired
	MetricVerifyInvalidSolution = internalmetrics.MetricVerifyInvalidSolution
	// MetricVerifyFatal counts verifications aborted by ErrUnknownExpressionKind.
	MetricVerifyFatal  = internalmetrics.MetricVerifyFatal
	MetricPassIssued   = internalmetrics.MetricPassIssued
	MetricPassRejected = internalmetrics.MetricPassRejected
	// MetricVerifyLatency is the only histogram.
	MetricVerifyLatency = internalmetrics.MetricVerifyLatency
)

// Metrics holds atomic counters and the optional latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
