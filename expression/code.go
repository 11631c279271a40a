package expression

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// DefaultCodeLength is used when a non-positive length is requested.
	DefaultCodeLength = 5
	// MaxCodeLength bounds generated codes.
	MaxCodeLength = 32

	codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Code is an opaque alphanumeric challenge. Its solution is the value itself.
type Code struct {
	Value string
}

type codeWire struct {
	Type Kind   `json:"type"`
	Code string `json:"code"`
}

// GenerateCode draws a base-36 code of exactly length characters.
func GenerateCode(length int) (Code, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}
	if length > MaxCodeLength {
		return Code{}, fmt.Errorf("%w: code length %d exceeds %d", ErrMalformedExpression, length, MaxCodeLength)
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := randomInt(len(codeAlphabet))
		if err != nil {
			return Code{}, err
		}
		b.WriteByte(codeAlphabet[n])
	}
	return Code{Value: b.String()}, nil
}

func (c Code) Kind() Kind { return KindCode }

func (c Code) Solve() (string, error) { return c.Value, nil }

func (c Code) String() string { return c.Value }

func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(codeWire{Type: KindCode, Code: c.Value})
}

func decodeCode(data []byte) (Expression, error) {
	var w codeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExpression, err)
	}
	if w.Type != KindCode {
		return nil, fmt.Errorf("%w: type %q is not %q", ErrMalformedExpression, w.Type, KindCode)
	}
	if w.Code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrMalformedExpression)
	}
	return Code{Value: w.Code}, nil
}
