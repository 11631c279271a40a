package flows

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Payload is the plaintext carried inside a challenge token.
// Field order fixes the serialized key order: validUntil, then expression.
type Payload struct {
	ValidUntil int64           `json:"validUntil"`
	Expression json.RawMessage `json:"expression"`
}

// NormalizeSolution trims surrounding space and applies NFKC so that full-width or
// compatibility digits typed by a user compare equal to their ASCII form.
func NormalizeSolution(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}
