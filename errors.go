package goCaptcha

import (
	"errors"

	"github.com/MrEthical07/goCaptcha/expression"
)

var (
	// ErrUnknownMode is returned by Issue when the configured mode has no expression variant.
	// It indicates a deployment error, not a per-request condition.
	ErrUnknownMode = errors.New("unknown challenge mode")
	// ErrUnknownExpressionKind is returned by Verify when a correctly signed token carries an
	// expression kind this build does not know. It indicates issuer/verifier version skew.
	ErrUnknownExpressionKind = expression.ErrUnknownKind
	// ErrIssueFailed wraps generation, serialization, or sealing failures during Issue.
	ErrIssueFailed = errors.New("challenge issuance failed")
	// ErrRenderFailed is returned when the configured Renderer fails.
	ErrRenderFailed = errors.New("challenge rendering failed")
	// ErrPassDisabled is returned by pass operations when passes are not configured.
	ErrPassDisabled = errors.New("pass issuance disabled")
	// ErrPassInvalid is returned by ValidatePass for any malformed, forged, or expired pass.
	ErrPassInvalid = errors.New("pass invalid")
	// ErrEngineNotReady is returned when a method is called on a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidKeys is returned by Config.Validate when keys are missing or reused.
	ErrInvalidKeys = errors.New("invalid challenge keys")
)
