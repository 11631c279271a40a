package goCaptcha

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type testClock struct {
	nanos atomic.Int64
}

func newTestClock(start time.Time) *testClock {
	c := &testClock{}
	c.nanos.Store(start.UnixNano())
	return c
}

func (c *testClock) Now() time.Time {
	return time.Unix(0, c.nanos.Load())
}

func (c *testClock) Advance(d time.Duration) {
	c.nanos.Add(int64(d))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Keys = KeysFromSecrets("test encryption secret", "test signature secret")
	cfg.Challenge.Duration = 10 * time.Second
	return cfg
}

func buildTestEngine(t *testing.T, cfg Config, clock *testClock, opts ...func(*Builder)) *Engine {
	t.Helper()

	b := New().WithConfig(cfg)
	if clock != nil {
		b.WithClock(clock.Now)
	}
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// solve recovers the answer from a challenge's canonical text.
func solve(t *testing.T, ch *Challenge) string {
	t.Helper()
	if ch.Mode == ModeCode {
		return ch.Text
	}

	total, sign, n := 0, 1, 0
	flush := func() { total += sign * n; n = 0 }
	for _, r := range ch.Text {
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int(r-'0')
		case r == '+':
			flush()
			sign = 1
		case r == '-':
			flush()
			sign = -1
		default:
			t.Fatalf("unexpected rune %q in %q", r, ch.Text)
		}
	}
	flush()
	return strconv.Itoa(total)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Contains(s string) bool {
	return strings.Contains(b.String(), s)
}
