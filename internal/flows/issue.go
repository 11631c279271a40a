package flows

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goCaptcha/envelope"
	"github.com/MrEthical07/goCaptcha/expression"
)

// IssueDeps captures everything needed to mint one challenge.
type IssueDeps struct {
	Generate      func() (expression.Expression, error)
	Now           func() time.Time
	Duration      time.Duration
	EncryptionKey envelope.Key
	SignatureKey  envelope.Key
}

// IssueResult is a freshly minted challenge.
type IssueResult struct {
	Expression expression.Expression
	Envelope   string
	Token      string
	Text       string
	ValidUntil time.Time
}

// RunIssue generates an expression, stamps validUntil once, and seals the payload.
func RunIssue(deps IssueDeps) (IssueResult, error) {
	if deps.Generate == nil || deps.Now == nil {
		return IssueResult{}, errors.New("flows: issue dependencies missing")
	}

	expr, err := deps.Generate()
	if err != nil {
		return IssueResult{}, fmt.Errorf("generate expression: %w", err)
	}

	body, err := expression.Marshal(expr)
	if err != nil {
		return IssueResult{}, fmt.Errorf("marshal expression: %w", err)
	}

	validUntil := deps.Now().Add(deps.Duration).UnixMilli()
	plain, err := json.Marshal(Payload{ValidUntil: validUntil, Expression: body})
	if err != nil {
		return IssueResult{}, fmt.Errorf("marshal payload: %w", err)
	}

	token, err := envelope.EncryptAndSign(string(plain), deps.EncryptionKey, deps.SignatureKey)
	if err != nil {
		return IssueResult{}, fmt.Errorf("seal payload: %w", err)
	}

	return IssueResult{
		Expression: expr,
		Envelope:   string(plain),
		Token:      token,
		Text:       expr.String(),
		ValidUntil: time.UnixMilli(validUntil),
	}, nil
}
