package redisstream

import (
	"context"
	"testing"
	"time"

	goCaptcha "github.com/MrEthical07/goCaptcha"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func event(eventType string) goCaptcha.AuditEvent {
	return goCaptcha.AuditEvent{
		ID:        eventType + "-id",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		EventType: eventType,
		Mode:      "math",
		Result:    "accepted",
		Success:   true,
		Metadata:  map[string]string{"request_id": "r1"},
	}
}

func TestNewRejectsNilClient(t *testing.T) {
	_, err := New(nil, Config{})
	require.ErrorIs(t, err, ErrNilClient)
}

func TestEmitAppendsToStream(t *testing.T) {
	_, rdb := newTestRedis(t)
	sink, err := New(rdb, Config{})
	require.NoError(t, err)
	require.Equal(t, DefaultStream, sink.Stream())

	ctx := context.Background()
	sink.Emit(ctx, event("challenge_issued"))
	sink.Emit(ctx, event("challenge_verified"))

	n, err := rdb.XLen(ctx, DefaultStream).Result()
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	events, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "challenge_verified", events[0].EventType)
	require.Equal(t, "challenge_issued", events[1].EventType)
	require.Equal(t, "r1", events[1].Metadata["request_id"])
	require.True(t, events[1].Timestamp.Equal(event("x").Timestamp))
	require.Zero(t, sink.Failures())
}

func TestStreamIsTrimmed(t *testing.T) {
	_, rdb := newTestRedis(t)
	sink, err := New(rdb, Config{Stream: "audit:test", MaxLen: 3})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Append(ctx, event("challenge_issued")))
	}

	n, err := rdb.XLen(ctx, "audit:test").Result()
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestEmitCountsFailures(t *testing.T) {
	mr, rdb := newTestRedis(t)
	sink, err := New(rdb, Config{})
	require.NoError(t, err)

	mr.Close()
	sink.Emit(context.Background(), event("challenge_issued"))
	require.EqualValues(t, 1, sink.Failures())
}

func TestEngineDeliversThroughDispatcher(t *testing.T) {
	_, rdb := newTestRedis(t)
	sink, err := New(rdb, Config{})
	require.NoError(t, err)

	cfg := goCaptcha.DefaultConfig()
	cfg.Keys = goCaptcha.KeysFromSecrets("stream enc", "stream sig")
	cfg.Audit.Enabled = true
	cfg.Audit.SinkTimeout = time.Second

	engine, err := goCaptcha.New().WithConfig(cfg).WithAuditSink(sink).Build()
	require.NoError(t, err)

	ch, err := engine.Issue(context.Background())
	require.NoError(t, err)
	_, err = engine.Verify(context.Background(), ch.Token, "wrong")
	require.NoError(t, err)
	engine.Close()

	events, err := sink.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "challenge_verified", events[0].EventType)
	require.Equal(t, "invalid_solution", events[0].Result)
}
