package goCaptcha

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goCaptcha/envelope"
	"github.com/MrEthical07/goCaptcha/expression"
	"github.com/MrEthical07/goCaptcha/internal/audit"
	"github.com/MrEthical07/goCaptcha/internal/flows"
	"github.com/MrEthical07/goCaptcha/pass"
)

// Engine issues and verifies challenges. It holds no per-challenge state and all
// methods are safe for concurrent use after [Builder.Build].
type Engine struct {
	config   Config
	renderer Renderer
	logger   *slog.Logger
	now      func() time.Time
	audit    *audit.Dispatcher
	metrics  *Metrics
	passes   *pass.Manager
}

// Close flushes pending audit events. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Issue generates a challenge for the configured mode, seals it into a token and,
// when a Renderer is configured, renders its canonical text.
func (e *Engine) Issue(ctx context.Context) (*Challenge, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	ch, err := e.issue()
	if err != nil {
		e.metricInc(MetricIssueFailure)
		e.logger.ErrorContext(ctx, "challenge issuance failed",
			slog.String("mode", string(e.config.Challenge.Mode)),
			slog.String("request_id", requestIDFromContext(ctx)),
			slog.Any("error", err),
		)
		e.emitAudit(ctx, auditEventIssueFailure, false, e.config.Challenge.Mode, "", err)
		return nil, err
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEventIssued, true, ch.Mode, "", nil, func(m map[string]string) {
		m["valid_until"] = ch.ValidUntil.UTC().Format(time.RFC3339Nano)
	})
	return ch, nil
}

func (e *Engine) issue() (*Challenge, error) {
	cc := e.config.Challenge
	kind := expression.Kind(cc.Mode)
	if !expression.Registered(kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cc.Mode)
	}

	res, err := flows.RunIssue(flows.IssueDeps{
		Generate: func() (expression.Expression, error) {
			return expression.Generate(kind, expression.Params{
				CodeLength:   cc.CodeLength,
				OperandCount: cc.OperandCount,
			})
		},
		Now:           e.now,
		Duration:      cc.Duration,
		EncryptionKey: e.config.Keys.EncryptionKey,
		SignatureKey:  e.config.Keys.SignatureKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIssueFailed, err)
	}

	ch := &Challenge{
		Token:      res.Token,
		ValidUntil: res.ValidUntil,
		Mode:       cc.Mode,
		Text:       res.Text,
		Envelope:   res.Envelope,
	}
	if e.renderer != nil {
		img, err := e.renderer.Render(res.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
		}
		ch.Image = img
	}
	return ch, nil
}

// Verify checks solution against token. Every per-request rejection is returned as a
// Result with a nil error. A non-nil error is fatal: ErrUnknownExpressionKind means
// the token was sealed with this engine's keys by a build that knows more expression
// kinds than this one.
func (e *Engine) Verify(ctx context.Context, token, solution string) (Result, error) {
	if e == nil {
		return ResultInvalidData, ErrEngineNotReady
	}
	result, _, err := e.verify(ctx, token, solution)
	return result, err
}

// VerifyAndGrant verifies like Verify and, on ResultAccepted, mints a pass. The pass is
// empty for any other result. When the engine cannot mint passes it returns
// ErrPassDisabled without verifying the token.
func (e *Engine) VerifyAndGrant(ctx context.Context, token, solution string) (Result, string, error) {
	if e == nil {
		return ResultInvalidData, "", ErrEngineNotReady
	}
	if e.passes == nil {
		return ResultInvalidData, "", ErrPassDisabled
	}
	if !e.passes.CanIssue() {
		return ResultInvalidData, "", fmt.Errorf("%w: pass key is verify-only", ErrPassDisabled)
	}

	result, kind, err := e.verify(ctx, token, solution)
	if err != nil || !result.Accepted() {
		return result, "", err
	}

	signed, claims, err := e.passes.Issue(string(e.config.Challenge.Mode), string(kind))
	if err != nil {
		e.logger.ErrorContext(ctx, "pass issuance failed", slog.Any("error", err))
		return result, "", fmt.Errorf("issue pass: %w", err)
	}

	e.metricInc(MetricPassIssued)
	e.emitAudit(ctx, auditEventPassIssued, true, Mode(kind), result.String(), nil, func(m map[string]string) {
		m["pass_id"] = claims.ID
	})
	return result, signed, nil
}

func (e *Engine) verify(ctx context.Context, token, solution string) (Result, expression.Kind, error) {
	start := time.Now()
	vr := flows.RunVerify(e.verifyDeps(), token, solution)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}

	if vr.Err != nil {
		e.metricInc(MetricVerifyFatal)
		e.logger.ErrorContext(ctx, "challenge verification aborted",
			slog.String("kind", string(vr.Kind)),
			slog.String("request_id", requestIDFromContext(ctx)),
			slog.Any("error", vr.Err),
		)
		e.emitAudit(ctx, auditEventVerifyFatal, false, Mode(vr.Kind), "", vr.Err)
		return ResultInvalidData, vr.Kind, vr.Err
	}

	result := resultFromOutcome(vr.Outcome)
	e.metricInc(metricForResult(result))

	if !result.Accepted() {
		attrs := []any{
			slog.String("result", result.String()),
			slog.String("request_id", requestIDFromContext(ctx)),
		}
		if vr.Cause != nil {
			attrs = append(attrs, slog.String("cause", vr.Cause.Error()))
		}
		e.logger.DebugContext(ctx, "challenge rejected", attrs...)
	}
	e.emitAudit(ctx, auditEventVerified, result.Accepted(), Mode(vr.Kind), result.String(), nil)

	return result, vr.Kind, nil
}

// ValidatePass checks a pass minted by VerifyAndGrant and returns its claims.
func (e *Engine) ValidatePass(ctx context.Context, token string) (*pass.Claims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.passes == nil {
		return nil, ErrPassDisabled
	}

	claims, err := e.passes.Parse(token)
	if err != nil {
		e.metricInc(MetricPassRejected)
		e.logger.DebugContext(ctx, "pass rejected", slog.String("cause", err.Error()))
		e.emitAudit(ctx, auditEventPassRejected, false, "", "", ErrPassInvalid)
		return nil, fmt.Errorf("%w: %w", ErrPassInvalid, err)
	}
	return claims, nil
}

func (e *Engine) verifyDeps() flows.VerifyDeps {
	deps := flows.VerifyDeps{
		Now:           e.now,
		EncryptionKey: e.config.Keys.EncryptionKey,
		SignatureKey:  e.config.Keys.SignatureKey,
	}
	if e.config.Verify.NormalizeSolution {
		deps.Normalize = flows.NormalizeSolution
	}
	return deps
}

// VerifyToken verifies token without an Engine, using the wall clock and exact solution
// comparison. The error contract matches Engine.Verify.
func VerifyToken(token, solution string, encryptionKey, signatureKey envelope.Key) (Result, error) {
	vr := flows.RunVerify(flows.VerifyDeps{
		Now:           time.Now,
		EncryptionKey: encryptionKey,
		SignatureKey:  signatureKey,
	}, token, solution)
	if vr.Err != nil {
		return ResultInvalidData, vr.Err
	}
	return resultFromOutcome(vr.Outcome), nil
}

func resultFromOutcome(o flows.Outcome) Result {
	switch o {
	case flows.OutcomeAccepted:
		return ResultAccepted
	case flows.OutcomeExpired:
		return ResultExpired
	case flows.OutcomeInvalidSolution:
		return ResultInvalidSolution
	default:
		return ResultInvalidData
	}
}

func metricForResult(r Result) MetricID {
	switch r {
	case ResultAccepted:
		return MetricVerifyAccepted
	case ResultExpired:
		return MetricVerifyExpired
	case ResultInvalidSolution:
		return MetricVerifyInvalidSolution
	default:
		return MetricVerifyInvalidData
	}
}
