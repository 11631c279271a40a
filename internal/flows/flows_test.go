package flows

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goCaptcha/envelope"
	"github.com/MrEthical07/goCaptcha/expression"
)

var (
	encKey = envelope.DeriveKey("enc")
	sigKey = envelope.DeriveKey("sig")
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func issueMath(t *testing.T, now time.Time, d time.Duration, m expression.Math) IssueResult {
	t.Helper()
	res, err := RunIssue(IssueDeps{
		Generate:      func() (expression.Expression, error) { return m, nil },
		Now:           fixedClock(now),
		Duration:      d,
		EncryptionKey: encKey,
		SignatureKey:  sigKey,
	})
	if err != nil {
		t.Fatalf("RunIssue failed: %v", err)
	}
	return res
}

func verifyAt(now time.Time, token, solution string) VerifyResult {
	return RunVerify(VerifyDeps{
		Now:           fixedClock(now),
		EncryptionKey: encKey,
		SignatureKey:  sigKey,
	}, token, solution)
}

func TestIssueEnvelopeShape(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	res := issueMath(t, now, 10*time.Second, expression.Math{Operands: []int{1, 2}, Operators: []expression.Operator{expression.Add}})

	want := `{"validUntil":1700000010000,"expression":{"type":"math","operands":[1,2],"operators":["+"]}}`
	if res.Envelope != want {
		t.Fatalf("expected envelope %s, got %s", want, res.Envelope)
	}
	if res.Text != "1+2" {
		t.Fatalf("expected text 1+2, got %q", res.Text)
	}
	if !res.ValidUntil.Equal(now.Add(10 * time.Second)) {
		t.Fatalf("unexpected validUntil %v", res.ValidUntil)
	}
	if strings.Count(res.Token, "$") != 1 || strings.Count(res.Token, ":") != 1 {
		t.Fatalf("unexpected token layout %q", res.Token)
	}
}

func TestVerifyOutcomes(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	res := issueMath(t, now, 10*time.Second, expression.Math{Operands: []int{5, 8, 11}, Operators: []expression.Operator{expression.Add, expression.Subtract}})

	if got := verifyAt(now, res.Token, "2"); got.Outcome != OutcomeAccepted {
		t.Fatalf("expected accepted, got %+v", got)
	}
	if got := verifyAt(now, res.Token, "999"); got.Outcome != OutcomeInvalidSolution {
		t.Fatalf("expected invalid solution, got %+v", got)
	}
	if got := verifyAt(now, "garbage", "2"); got.Outcome != OutcomeInvalidData {
		t.Fatalf("expected invalid data, got %+v", got)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	d := 10 * time.Second
	res := issueMath(t, now, d, expression.Math{Operands: []int{1, 2}, Operators: []expression.Operator{expression.Add}})

	tests := []struct {
		at   time.Time
		want Outcome
	}{
		{now.Add(d - time.Millisecond), OutcomeAccepted},
		{now.Add(d), OutcomeExpired},
		{now.Add(d + time.Millisecond), OutcomeExpired},
	}
	for _, tt := range tests {
		if got := verifyAt(tt.at, res.Token, "3"); got.Outcome != tt.want {
			t.Fatalf("at %v: expected %v, got %+v", tt.at, tt.want, got)
		}
	}
}

func TestVerifyTamperedTokenIsInvalidData(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	res := issueMath(t, now, time.Minute, expression.Math{Operands: []int{1, 2}, Operators: []expression.Operator{expression.Add}})

	for i := 0; i < len(res.Token); i++ {
		b := []byte(res.Token)
		if b[i] == '0' {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
		got := verifyAt(now, string(b), "3")
		if got.Outcome != OutcomeInvalidData || got.Err != nil {
			t.Fatalf("flip at %d: expected invalid data, got %+v", i, got)
		}
	}

	for i := 0; i < len(res.Token); i++ {
		c := res.Token[i]
		if c < 'a' || c > 'f' {
			continue
		}
		b := []byte(res.Token)
		b[i] = c - 'a' + 'A'
		got := verifyAt(now, string(b), "3")
		if got.Outcome != OutcomeInvalidData || got.Err != nil {
			t.Fatalf("uppercase at %d: expected invalid data, got %+v", i, got)
		}
	}
}

func sealPayload(t *testing.T, plain string) string {
	t.Helper()
	token, err := envelope.EncryptAndSign(plain, encKey, sigKey)
	if err != nil {
		t.Fatalf("EncryptAndSign failed: %v", err)
	}
	return token
}

func TestVerifyUnknownKindIsFatal(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	token := sealPayload(t, `{"validUntil":1700000010000,"expression":{"type":"riddle","text":"?"}}`)

	got := verifyAt(now, token, "x")
	if got.Outcome != OutcomeNone {
		t.Fatalf("expected no outcome, got %+v", got)
	}
	if !errors.Is(got.Err, expression.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", got.Err)
	}
}

func TestVerifyExpiredBeforeKindDispatch(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	token := sealPayload(t, `{"validUntil":1600000000000,"expression":{"type":"riddle"}}`)

	if got := verifyAt(now, token, "x"); got.Outcome != OutcomeExpired || got.Err != nil {
		t.Fatalf("expected expired, got %+v", got)
	}
}

func TestVerifyMalformedPayloads(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	cases := []string{
		`not json`,
		`{}`,
		`{"validUntil":1700000010000}`,
		`{"validUntil":"soon","expression":{"type":"code","code":"a"}}`,
		`{"validUntil":1700000010000,"expression":{"type":"math","operands":[4],"operators":["+"]}}`,
		`{"validUntil":1700000010000,"expression":{"type":"math","operands":[1,2],"operators":["*"]}}`,
		`{"validUntil":1700000010000,"expression":{"type":"code","code":""}}`,
		`{"validUntil":1700000010000,"expression":"code"}`,
	}
	for _, c := range cases {
		got := verifyAt(now, sealPayload(t, c), "1")
		if got.Outcome != OutcomeInvalidData || got.Err != nil {
			t.Fatalf("payload %s: expected invalid data, got %+v", c, got)
		}
	}
}

func TestVerifyNormalizesWhenConfigured(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	body, _ := json.Marshal(Payload{ValidUntil: now.Add(time.Minute).UnixMilli(), Expression: json.RawMessage(`{"type":"code","code":"12"}`)})
	token := sealPayload(t, string(body))

	deps := VerifyDeps{Now: fixedClock(now), EncryptionKey: encKey, SignatureKey: sigKey}
	if got := RunVerify(deps, token, " １２ "); got.Outcome != OutcomeInvalidSolution {
		t.Fatalf("expected exact comparison to reject, got %+v", got)
	}

	deps.Normalize = NormalizeSolution
	if got := RunVerify(deps, token, " １２ "); got.Outcome != OutcomeAccepted {
		t.Fatalf("expected normalized comparison to accept, got %+v", got)
	}
}

func TestIssueRejectsGeneratorFailure(t *testing.T) {
	_, err := RunIssue(IssueDeps{
		Generate: func() (expression.Expression, error) { return nil, expression.ErrMalformedExpression },
		Now:      time.Now,
	})
	if !errors.Is(err, expression.ErrMalformedExpression) {
		t.Fatalf("expected ErrMalformedExpression, got %v", err)
	}
}
