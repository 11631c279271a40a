package expression

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Kind is the discriminator persisted in the "type" field of a serialized expression.
type Kind string

const (
	// KindCode tags a Code expression.
	KindCode Kind = "code"
	// KindMath tags a Math expression.
	KindMath Kind = "math"
)

var (
	// ErrMalformedExpression is returned when an expression cannot be generated, decoded, or solved.
	ErrMalformedExpression = errors.New("malformed expression")
	// ErrUnknownKind is returned when a kind tag has no registered variant.
	ErrUnknownKind = errors.New("unknown expression kind")
)

// Expression is the capability set every puzzle variant provides.
//
// Solve must be pure: the same fields always yield the same answer.
type Expression interface {
	Kind() Kind
	Solve() (string, error)
	String() string
}

// Params carries generation parameters for all variants. Zero values select defaults.
type Params struct {
	CodeLength   int
	OperandCount int
}

// Decoder rebuilds a variant from its serialized JSON object.
type Decoder func(data []byte) (Expression, error)

// Generator draws a fresh random variant.
type Generator func(p Params) (Expression, error)

type variant struct {
	decode   Decoder
	generate Generator
}

var registry = struct {
	mu       sync.RWMutex
	variants map[Kind]variant
}{
	variants: map[Kind]variant{
		KindCode: {decode: decodeCode, generate: func(p Params) (Expression, error) { return GenerateCode(p.CodeLength) }},
		KindMath: {decode: decodeMath, generate: func(p Params) (Expression, error) { return GenerateMath(p.OperandCount) }},
	},
}

// Register adds a variant under kind. Registering an empty or existing kind fails.
func Register(kind Kind, decode Decoder, generate Generator) error {
	if kind == "" || decode == nil || generate == nil {
		return errors.New("expression: register requires kind, decoder and generator")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, exists := registry.variants[kind]; exists {
		return fmt.Errorf("expression: kind %q already registered", kind)
	}
	registry.variants[kind] = variant{decode: decode, generate: generate}
	return nil
}

// Registered reports whether kind has a variant.
func Registered(kind Kind) bool {
	_, ok := lookup(kind)
	return ok
}

func lookup(kind Kind) (variant, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	v, ok := registry.variants[kind]
	return v, ok
}

// Generate draws a random expression of the given kind.
func Generate(kind Kind, p Params) (Expression, error) {
	v, ok := lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return v.generate(p)
}

// Marshal serializes e to its tagged JSON object.
func Marshal(e Expression) ([]byte, error) {
	if e == nil {
		return nil, ErrMalformedExpression
	}
	return json.Marshal(e)
}

// Unmarshal decodes a tagged JSON object into the matching variant.
//
// An unrecognized tag yields ErrUnknownKind; a recognized tag with bad fields yields ErrMalformedExpression.
func Unmarshal(data []byte) (Expression, error) {
	kind, err := PeekKind(data)
	if err != nil {
		return nil, err
	}
	v, ok := lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return v.decode(data)
}

// PeekKind reads only the "type" discriminator of a serialized expression.
func PeekKind(data []byte) (Kind, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedExpression, err)
	}
	if head.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformedExpression)
	}
	return head.Type, nil
}
