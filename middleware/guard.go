package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	goCaptcha "github.com/MrEthical07/goCaptcha"
	"github.com/MrEthical07/goCaptcha/pass"
)

const (
	HeaderToken     = "X-Captcha-Token"
	HeaderSolution  = "X-Captcha-Solution"
	HeaderRequestID = "X-Request-Id"
)

type resultContextKey struct{}
type passContextKey struct{}

// ResultFromContext returns the verification result stored by RequireSolved.
func ResultFromContext(ctx context.Context) (goCaptcha.Result, bool) {
	res, ok := ctx.Value(resultContextKey{}).(goCaptcha.Result)
	return res, ok
}

// PassFromContext returns the pass claims stored by RequirePass.
func PassFromContext(ctx context.Context) (*pass.Claims, bool) {
	claims, ok := ctx.Value(passContextKey{}).(*pass.Claims)
	return claims, ok
}

// StatusForResult maps a verification result onto an HTTP status.
func StatusForResult(r goCaptcha.Result) int {
	switch r {
	case goCaptcha.ResultAccepted:
		return http.StatusOK
	case goCaptcha.ResultInvalidSolution:
		return http.StatusUnprocessableEntity
	case goCaptcha.ResultExpired:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}

// RequestContext copies the client IP, User-Agent, and request ID of r into ctx for
// audit metadata.
func RequestContext(ctx context.Context, r *http.Request) context.Context {
	ctx = goCaptcha.WithClientIP(ctx, clientIP(r))
	if ua := r.UserAgent(); ua != "" {
		ctx = goCaptcha.WithUserAgent(ctx, ua)
	}
	if id := r.Header.Get(HeaderRequestID); id != "" {
		ctx = goCaptcha.WithRequestID(ctx, id)
	}
	return ctx
}

// RequireSolved admits a request only when its X-Captcha-Token and X-Captcha-Solution
// headers verify as Accepted.
func RequireSolved(engine *goCaptcha.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "captcha unavailable", http.StatusServiceUnavailable)
				return
			}

			token := r.Header.Get(HeaderToken)
			if token == "" {
				http.Error(w, "captcha required", http.StatusForbidden)
				return
			}

			ctx := RequestContext(r.Context(), r)
			result, err := engine.Verify(ctx, token, r.Header.Get(HeaderSolution))
			if err != nil {
				http.Error(w, "captcha verification failed", http.StatusInternalServerError)
				return
			}
			if !result.Accepted() {
				http.Error(w, result.String(), StatusForResult(result))
				return
			}

			ctx = context.WithValue(ctx, resultContextKey{}, result)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePass admits a request carrying a valid pass as an Authorization bearer token.
func RequirePass(engine *goCaptcha.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "captcha unavailable", http.StatusServiceUnavailable)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "captcha pass required", http.StatusUnauthorized)
				return
			}

			ctx := RequestContext(r.Context(), r)
			claims, err := engine.ValidatePass(ctx, token)
			if err != nil {
				http.Error(w, "captcha pass invalid", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, passContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
