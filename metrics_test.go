package goCaptcha

import (
	"context"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricIssueSuccess)

	if got := m.Value(MetricIssueSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestEngineCountsEveryResult(t *testing.T) {
	clock := newTestClock(testStart)
	engine := buildTestEngine(t, testConfig(), clock)
	ctx := context.Background()

	ch, err := engine.Issue(ctx)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	answer := solve(t, ch)

	engine.Verify(ctx, ch.Token, answer)
	engine.Verify(ctx, ch.Token, "wrong")
	engine.Verify(ctx, "garbage", answer)
	clock.Advance(time.Minute)
	engine.Verify(ctx, ch.Token, answer)

	snap := engine.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricIssueSuccess:          1,
		MetricVerifyAccepted:        1,
		MetricVerifyInvalidSolution: 1,
		MetricVerifyInvalidData:     1,
		MetricVerifyExpired:         1,
		MetricVerifyFatal:           0,
	}
	for id, v := range want {
		if snap.Counters[id] != v {
			t.Fatalf("metric %d: expected %d, got %d", id, v, snap.Counters[id])
		}
	}
	if _, ok := snap.Histograms[MetricVerifyLatency]; ok {
		t.Fatalf("latency histogram must be absent unless enabled")
	}
}

func TestEngineLatencyHistogram(t *testing.T) {
	engine := buildTestEngine(t, testConfig(), newTestClock(testStart), func(b *Builder) {
		b.WithLatencyHistograms(true)
	})

	ch, err := engine.Issue(context.Background())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		engine.Verify(context.Background(), ch.Token, solve(t, ch))
	}

	buckets := engine.MetricsSnapshot().Histograms[MetricVerifyLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	var total uint64
	for _, v := range buckets {
		total += v
	}
	if total != 3 {
		t.Fatalf("expected 3 observations, got %d", total)
	}
}

func TestEngineMetricsDisabled(t *testing.T) {
	engine := buildTestEngine(t, testConfig(), newTestClock(testStart), func(b *Builder) {
		b.WithMetricsEnabled(false)
	})

	if _, err := engine.Issue(context.Background()); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if snap := engine.MetricsSnapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap.Counters)
	}
}
