package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	goCaptcha "github.com/MrEthical07/goCaptcha"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream = "gocaptcha:audit"
	DefaultMaxLen = 10000
)

var ErrNilClient = errors.New("redisstream: nil redis client")

// Config controls the target stream.
type Config struct {
	Stream string
	// MaxLen caps the stream length. Zero selects DefaultMaxLen; negative disables trimming.
	MaxLen int64
	// Approx trims with "MAXLEN ~", which Redis can apply more cheaply.
	Approx bool
	Logger *slog.Logger
}

// Sink appends audit events to a Redis stream.
type Sink struct {
	redis    redis.UniversalClient
	stream   string
	maxLen   int64
	approx   bool
	logger   *slog.Logger
	failures atomic.Uint64
}

var _ goCaptcha.AuditSink = (*Sink)(nil)

func New(client redis.UniversalClient, cfg Config) (*Sink, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.MaxLen == 0 {
		cfg.MaxLen = DefaultMaxLen
	}
	if cfg.MaxLen < 0 {
		cfg.MaxLen = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Sink{
		redis:  client,
		stream: cfg.Stream,
		maxLen: cfg.MaxLen,
		approx: cfg.Approx,
		logger: cfg.Logger,
	}, nil
}

// Emit implements goCaptcha.AuditSink. Failures are logged and counted, never returned.
func (s *Sink) Emit(ctx context.Context, event goCaptcha.AuditEvent) {
	if err := s.Append(ctx, event); err != nil {
		s.failures.Add(1)
		s.logger.WarnContext(ctx, "audit stream append failed",
			slog.String("stream", s.stream),
			slog.String("event_type", event.EventType),
			slog.Any("error", err),
		)
	}
}

// Append writes one event and returns the Redis error, if any.
func (s *Sink) Append(ctx context.Context, event goCaptcha.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: s.approx,
		Values: map[string]any{
			"event_type": event.EventType,
			"id":         event.ID,
			"payload":    string(payload),
		},
	}
	if err := s.redis.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (s *Sink) Recent(ctx context.Context, n int64) ([]goCaptcha.AuditEvent, error) {
	msgs, err := s.redis.XRevRangeN(ctx, s.stream, "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", s.stream, err)
	}

	events := make([]goCaptcha.AuditEvent, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["payload"].(string)
		if !ok {
			continue
		}
		var ev goCaptcha.AuditEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, fmt.Errorf("decode stream entry %s: %w", msg.ID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Failures returns the number of events that could not be appended.
func (s *Sink) Failures() uint64 {
	return s.failures.Load()
}

func (s *Sink) Stream() string {
	return s.stream
}
