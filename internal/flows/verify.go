package flows

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goCaptcha/envelope"
	"github.com/MrEthical07/goCaptcha/expression"
)

// Outcome classifies a verification for root-level mapping.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeAccepted
	OutcomeInvalidData
	OutcomeExpired
	OutcomeInvalidSolution
)

// VerifyDeps captures keys and clock for verification.
type VerifyDeps struct {
	Now           func() time.Time
	EncryptionKey envelope.Key
	SignatureKey  envelope.Key
	// Normalize is applied to the candidate before comparison when set.
	Normalize func(string) string
}

// VerifyResult carries either an outcome or a fatal error.
//
// Cause records why a token was rejected; it is for local diagnostics only and must not
// be surfaced to the party that submitted the token.
type VerifyResult struct {
	Outcome    Outcome
	Kind       expression.Kind
	ValidUntil time.Time
	Cause      error
	Err        error
}

func invalidData(cause error) VerifyResult {
	return VerifyResult{Outcome: OutcomeInvalidData, Cause: cause}
}

// RunVerify checks token against solution. It never panics.
func RunVerify(deps VerifyDeps, token, solution string) (res VerifyResult) {
	defer func() {
		if r := recover(); r != nil {
			res = invalidData(fmt.Errorf("recovered: %v", r))
		}
	}()

	if deps.Now == nil {
		return VerifyResult{Err: errors.New("flows: verify clock missing")}
	}

	sealed, err := envelope.VerifyAndExtract(token, deps.SignatureKey)
	if err != nil {
		return invalidData(err)
	}

	plain, err := envelope.Decrypt(sealed, deps.EncryptionKey)
	if err != nil {
		return invalidData(err)
	}

	var p Payload
	if err := json.Unmarshal([]byte(plain), &p); err != nil {
		return invalidData(fmt.Errorf("parse payload: %w", err))
	}
	if p.ValidUntil <= 0 || len(p.Expression) == 0 {
		return invalidData(errors.New("payload missing fields"))
	}

	validUntil := time.UnixMilli(p.ValidUntil)
	if deps.Now().UnixMilli() >= p.ValidUntil {
		return VerifyResult{Outcome: OutcomeExpired, ValidUntil: validUntil}
	}

	kind, err := expression.PeekKind(p.Expression)
	if err != nil {
		return invalidData(err)
	}
	expr, err := expression.Unmarshal(p.Expression)
	if err != nil {
		if errors.Is(err, expression.ErrUnknownKind) {
			return VerifyResult{Kind: kind, ValidUntil: validUntil, Err: err}
		}
		return invalidData(err)
	}

	answer, err := expr.Solve()
	if err != nil {
		return invalidData(err)
	}

	candidate := solution
	if deps.Normalize != nil {
		candidate = deps.Normalize(candidate)
	}

	res = VerifyResult{Kind: kind, ValidUntil: validUntil}
	if subtle.ConstantTimeCompare([]byte(answer), []byte(candidate)) == 1 {
		res.Outcome = OutcomeAccepted
	} else {
		res.Outcome = OutcomeInvalidSolution
	}
	return res
}
