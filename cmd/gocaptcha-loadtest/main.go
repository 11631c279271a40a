package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goCaptcha "github.com/MrEthical07/goCaptcha"
	"github.com/MrEthical07/goCaptcha/auditsink/redisstream"
	"github.com/MrEthical07/goCaptcha/expression"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type issued struct {
	token  string
	answer string
}

func main() {
	var (
		pool        = flag.Int("pool", 10000, "number of challenges to pre-issue for the verify phase")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (issue + verify)")
		mode        = flag.String("mode", "math", "challenge mode: math or code")
		wrongRatio  = flag.Float64("wrong-ratio", 0.2, "fraction of verifications submitted with a wrong answer")
		audit       = flag.Bool("audit", false, "deliver audit events to a redis stream")
		redisAddr   = flag.String("redis-addr", "", "redis address for -audit; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *pool <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "pool, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	cfg := goCaptcha.DefaultConfig()
	cfg.Challenge.Mode = goCaptcha.Mode(*mode)
	cfg.Challenge.Duration = time.Hour
	cfg.Keys = goCaptcha.KeysFromSecrets("loadtest encryption", "loadtest signature")
	cfg.Metrics.EnableLatencyHistograms = true

	builder := goCaptcha.New().WithConfig(cfg)

	if *audit {
		client, cleanup, err := openRedis(*redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		sink, err := redisstream.New(client, redisstream.Config{Approx: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "audit sink: %v\n", err)
			os.Exit(1)
		}
		cfg.Audit.Enabled = true
		cfg.Audit.SinkTimeout = time.Second
		builder.WithConfig(cfg).WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx := context.Background()

	challenges := make([]issued, *pool)
	fmt.Printf("pre-issuing %d challenges...\n", *pool)
	startSeed := time.Now()
	for i := range challenges {
		ch, err := engine.Issue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		answer, err := solveEnvelope(ch.Envelope)
		if err != nil {
			fmt.Fprintf(os.Stderr, "solve failed: %v\n", err)
			os.Exit(1)
		}
		challenges[i] = issued{token: ch.Token, answer: answer}
	}
	fmt.Printf("pre-issued in %s\n", time.Since(startSeed).Round(time.Millisecond))

	issueStats := runPhase(*ops, *concurrency, func(int, *rand.Rand) bool {
		_, err := engine.Issue(ctx)
		return err == nil
	})
	verifyStats := runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) bool {
		c := challenges[r.IntN(len(challenges))]
		answer, want := c.answer, goCaptcha.ResultAccepted
		if r.Float64() < *wrongRatio {
			answer, want = c.answer+"0", goCaptcha.ResultInvalidSolution
		}
		result, err := engine.Verify(ctx, c.token, answer)
		return err == nil && result == want
	})

	fmt.Println("---- results ----")
	printStats("issue", issueStats)
	printStats("verify", verifyStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("accepted=%d invalid_solution=%d invalid_data=%d audit_dropped=%d\n",
		snap.Counters[goCaptcha.MetricVerifyAccepted],
		snap.Counters[goCaptcha.MetricVerifyInvalidSolution],
		snap.Counters[goCaptcha.MetricVerifyInvalidData],
		engine.AuditDropped(),
	)
}

// solveEnvelope recovers the answer from the plaintext envelope the engine returned at issue time.
func solveEnvelope(envelope string) (string, error) {
	var payload struct {
		Expression json.RawMessage `json:"expression"`
	}
	if err := json.Unmarshal([]byte(envelope), &payload); err != nil {
		return "", err
	}
	expr, err := expression.Unmarshal(payload.Expression)
	if err != nil {
		return "", err
	}
	return expr.Solve()
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func runPhase(ops, concurrency int, op func(worker int, r *rand.Rand) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				ok := op(worker, r)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
