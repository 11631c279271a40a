//go:build integration
// +build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goCaptcha "github.com/MrEthical07/goCaptcha"
	"github.com/MrEthical07/goCaptcha/auditsink/redisstream"
	"github.com/MrEthical07/goCaptcha/expression"
	"github.com/MrEthical07/goCaptcha/httpapi"
	promexport "github.com/MrEthical07/goCaptcha/metrics/export/prometheus"
	"github.com/MrEthical07/goCaptcha/render"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestEndToEndOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sink, err := redisstream.New(rdb, redisstream.Config{})
	if err != nil {
		t.Fatalf("sink: %v", err)
	}

	cfg := goCaptcha.DefaultConfig()
	cfg.Keys = goCaptcha.KeysFromSecrets("e2e enc", "e2e sig")
	cfg.Pass.Enabled = true
	cfg.Audit.Enabled = true
	cfg.Audit.SinkTimeout = time.Second

	svg, err := render.NewSVG(render.DefaultOptions())
	if err != nil {
		t.Fatalf("NewSVG: %v", err)
	}

	// Capture the challenge text the renderer sees; clients only get the image.
	texts := make(chan string, 1)
	renderer := goCaptcha.RendererFunc(func(text string) (string, error) {
		texts <- text
		return svg.Render(text)
	})

	engine, err := goCaptcha.New().WithConfig(cfg).WithRenderer(renderer).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	srv := httptest.NewServer(httpapi.NewRouter(engine, httpapi.RouterOptions{
		Metrics: promexport.NewPrometheusExporter(engine).Handler(),
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/captcha")
	if err != nil {
		t.Fatalf("GET /captcha: %v", err)
	}
	var issued struct {
		Token string `json:"token"`
		Image string `json:"image"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&issued); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if !strings.HasPrefix(issued.Image, "<svg") {
		t.Fatalf("expected svg image")
	}

	answer := solveMath(t, <-texts)
	body, _ := json.Marshal(map[string]string{"token": issued.Token, "solution": answer})
	resp, err = http.Post(srv.URL+"/captcha/pass", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /captcha/pass: %v", err)
	}
	var granted struct {
		Result string `json:"result"`
		Pass   string `json:"pass"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&granted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || granted.Result != "accepted" || granted.Pass == "" {
		t.Fatalf("unexpected grant %d %+v", resp.StatusCode, granted)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(metrics), "gocaptcha_pass_issued_total 1") {
		t.Fatalf("expected pass counter in metrics:\n%s", metrics)
	}

	engine.Close()
	events, err := sink.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected issued, verified, pass_issued events, got %d", len(events))
	}
}

// solveMath evaluates canonical math text by rebuilding the expression.
func solveMath(t *testing.T, text string) string {
	t.Helper()
	var m expression.Math
	start := 0
	for i := 1; i <= len(text); i++ {
		if i == len(text) || text[i] == '+' || text[i] == '-' {
			n := 0
			for _, c := range text[start:i] {
				if c >= '0' && c <= '9' {
					n = n*10 + int(c-'0')
				}
			}
			m.Operands = append(m.Operands, n)
			if i < len(text) {
				m.Operators = append(m.Operators, expression.Operator(text[i:i+1]))
			}
			start = i + 1
		}
	}
	answer, err := m.Solve()
	if err != nil {
		t.Fatalf("solve %q: %v", text, err)
	}
	return answer
}
