package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	goCaptcha "github.com/MrEthical07/goCaptcha"
)

func newEngine(t *testing.T, passes bool) *goCaptcha.Engine {
	t.Helper()
	cfg := goCaptcha.DefaultConfig()
	cfg.Keys = goCaptcha.KeysFromSecrets("middleware enc", "middleware sig")
	cfg.Challenge.Mode = goCaptcha.ModeCode
	cfg.Pass.Enabled = passes
	engine, err := goCaptcha.New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ResultFromContext(r.Context()); ok {
			w.Header().Set("X-Solved", "1")
		}
		if claims, ok := PassFromContext(r.Context()); ok {
			w.Header().Set("X-Pass-Mode", claims.Mode)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireSolved(t *testing.T) {
	engine := newEngine(t, false)
	ch, err := engine.Issue(context.Background())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name     string
		token    string
		solution string
		want     int
	}{
		{name: "accepted", token: ch.Token, solution: ch.Text, want: http.StatusNoContent},
		{name: "missing token", token: "", solution: ch.Text, want: http.StatusForbidden},
		{name: "wrong solution", token: ch.Token, solution: ch.Text + "x", want: http.StatusUnprocessableEntity},
		{name: "forged token", token: "00$11:22", solution: ch.Text, want: http.StatusBadRequest},
	}

	h := RequireSolved(engine)(okHandler(t))
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/signup", nil)
			if tc.token != "" {
				req.Header.Set(HeaderToken, tc.token)
			}
			req.Header.Set(HeaderSolution, tc.solution)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
			if tc.want == http.StatusNoContent && rec.Header().Get("X-Solved") != "1" {
				t.Fatalf("expected result in request context")
			}
		})
	}
}

func TestRequireSolvedNilEngine(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireSolved(nil)(okHandler(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRequirePass(t *testing.T) {
	engine := newEngine(t, true)
	ch, err := engine.Issue(context.Background())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	_, token, err := engine.VerifyAndGrant(context.Background(), ch.Token, ch.Text)
	if err != nil || token == "" {
		t.Fatalf("VerifyAndGrant failed: %v", err)
	}

	h := RequirePass(engine)(okHandler(t))
	for name, tc := range map[string]struct {
		header string
		want   int
	}{
		"valid":      {header: "Bearer " + token, want: http.StatusNoContent},
		"missing":    {header: "", want: http.StatusUnauthorized},
		"not bearer": {header: "Basic " + token, want: http.StatusUnauthorized},
		"tampered":   {header: "Bearer " + token + "x", want: http.StatusUnauthorized},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if tc.want == http.StatusNoContent && rec.Header().Get("X-Pass-Mode") != "code" {
				t.Fatalf("expected pass claims in context")
			}
		})
	}
}

func TestStatusForResult(t *testing.T) {
	want := map[goCaptcha.Result]int{
		goCaptcha.ResultAccepted:        200,
		goCaptcha.ResultInvalidSolution: 422,
		goCaptcha.ResultExpired:         410,
		goCaptcha.ResultInvalidData:     400,
	}
	for r, code := range want {
		if got := StatusForResult(r); got != code {
			t.Fatalf("%s: expected %d, got %d", r, code, got)
		}
	}
}

func TestRequestContextFeedsAudit(t *testing.T) {
	cfg := goCaptcha.DefaultConfig()
	cfg.Keys = goCaptcha.KeysFromSecrets("middleware enc", "middleware sig")
	cfg.Audit.Enabled = true
	sink := goCaptcha.NewChannelSink(4)
	engine, err := goCaptcha.New().WithConfig(cfg).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:5123"
	req.Header.Set("User-Agent", "agent/1.0")
	req.Header.Set(HeaderRequestID, "rid-"+strconv.Itoa(7))

	if _, err := engine.Issue(RequestContext(req.Context(), req)); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	select {
	case ev := <-sink.Events():
		if ev.Metadata["ip"] != "198.51.100.4" || ev.Metadata["user_agent"] != "agent/1.0" || !strings.HasPrefix(ev.Metadata["request_id"], "rid-") {
			t.Fatalf("unexpected metadata %+v", ev.Metadata)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for audit event")
	}
}
