package goCaptcha

import (
	"context"
	"errors"

	"github.com/MrEthical07/goCaptcha/internal/audit"
)

const (
	auditEventIssued       = "challenge_issued"
	auditEventIssueFailure = "challenge_issue_failure"
	auditEventVerified     = "challenge_verified"
	auditEventVerifyFatal  = "challenge_verify_fatal"
	auditEventPassIssued   = "pass_issued"
	auditEventPassRejected = "pass_rejected"
)

// AuditErrorCode is the coarse error classification recorded on audit events.
type AuditErrorCode string

const (
	auditErrUnknownMode  AuditErrorCode = "unknown_mode"
	auditErrUnknownKind  AuditErrorCode = "unknown_expression_kind"
	auditErrRenderFailed AuditErrorCode = "render_failed"
	auditErrIssueFailed  AuditErrorCode = "issue_failed"
	auditErrPassInvalid  AuditErrorCode = "pass_invalid"
	auditErrInternal     AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	mode Mode,
	result string,
	err error,
	metadataBuilders ...func(map[string]string),
) {
	if e == nil || e.audit == nil {
		return
	}

	event := audit.NewEvent(e.now(), eventType)
	event.Mode = string(mode)
	event.Result = result
	event.Success = success
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	metadata := make(map[string]string, 4)
	if ip := clientIPFromContext(ctx); ip != "" {
		metadata["ip"] = ip
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		metadata["user_agent"] = ua
	}
	if id := requestIDFromContext(ctx); id != "" {
		metadata["request_id"] = id
	}
	for _, build := range metadataBuilders {
		if build != nil {
			build(metadata)
		}
	}
	if len(metadata) > 0 {
		event.Metadata = metadata
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnknownMode):
		return auditErrUnknownMode
	case errors.Is(err, ErrUnknownExpressionKind):
		return auditErrUnknownKind
	case errors.Is(err, ErrRenderFailed):
		return auditErrRenderFailed
	case errors.Is(err, ErrIssueFailed):
		return auditErrIssueFailed
	case errors.Is(err, ErrPassInvalid):
		return auditErrPassInvalid
	default:
		return auditErrInternal
	}
}
