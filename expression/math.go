package expression

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultOperandCount is used when a non-positive count is requested.
	DefaultOperandCount = 2
	// MaxOperandCount bounds generated expressions.
	MaxOperandCount = 16

	minOperand = 1
	maxOperand = 9
)

// Operator is a binary arithmetic operator in a Math expression.
type Operator string

const (
	// Add is "+".
	Add Operator = "+"
	// Subtract is "-".
	Subtract Operator = "-"
)

var availableOperators = [...]Operator{Add, Subtract}

// Math is an arithmetic challenge: operands folded left to right by operators.
//
// len(Operators) must equal len(Operands)-1.
type Math struct {
	Operands  []int
	Operators []Operator
}

type mathWire struct {
	Type      Kind       `json:"type"`
	Operands  []int      `json:"operands"`
	Operators []Operator `json:"operators"`
}

// GenerateMath draws count operands uniformly from [1,9] and count-1 operators uniformly from {+,-}.
func GenerateMath(count int) (Math, error) {
	if count <= 0 {
		count = DefaultOperandCount
	}
	if count < 2 || count > MaxOperandCount {
		return Math{}, fmt.Errorf("%w: operand count %d outside [2,%d]", ErrMalformedExpression, count, MaxOperandCount)
	}

	m := Math{
		Operands:  make([]int, count),
		Operators: make([]Operator, count-1),
	}
	for i := range m.Operands {
		n, err := randomInt(maxOperand - minOperand + 1)
		if err != nil {
			return Math{}, err
		}
		m.Operands[i] = minOperand + n
	}
	for i := range m.Operators {
		n, err := randomInt(len(availableOperators))
		if err != nil {
			return Math{}, err
		}
		m.Operators[i] = availableOperators[n]
	}
	return m, nil
}

func (m Math) Kind() Kind { return KindMath }

// Solve folds the operands with an implicit leading Add.
func (m Math) Solve() (string, error) {
	if len(m.Operands) < 2 {
		return "", fmt.Errorf("%w: need at least 2 operands, got %d", ErrMalformedExpression, len(m.Operands))
	}
	if len(m.Operators) != len(m.Operands)-1 {
		return "", fmt.Errorf("%w: %d operands need %d operators, got %d",
			ErrMalformedExpression, len(m.Operands), len(m.Operands)-1, len(m.Operators))
	}

	result := m.Operands[0]
	for i, op := range m.Operators {
		switch op {
		case Add:
			result += m.Operands[i+1]
		case Subtract:
			result -= m.Operands[i+1]
		default:
			return "", fmt.Errorf("%w: unknown operator %q", ErrMalformedExpression, op)
		}
	}
	return strconv.Itoa(result), nil
}

// String interleaves operands and operators, e.g. "5-8".
func (m Math) String() string {
	var b strings.Builder
	for i, a := range m.Operands {
		if i > 0 && i-1 < len(m.Operators) {
			b.WriteString(string(m.Operators[i-1]))
		}
		b.WriteString(strconv.Itoa(a))
	}
	return b.String()
}

func (m Math) MarshalJSON() ([]byte, error) {
	w := mathWire{Type: KindMath, Operands: m.Operands, Operators: m.Operators}
	if w.Operands == nil {
		w.Operands = []int{}
	}
	if w.Operators == nil {
		w.Operators = []Operator{}
	}
	return json.Marshal(w)
}

func decodeMath(data []byte) (Expression, error) {
	var w mathWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExpression, err)
	}
	if w.Type != KindMath {
		return nil, fmt.Errorf("%w: type %q is not %q", ErrMalformedExpression, w.Type, KindMath)
	}
	return Math{Operands: w.Operands, Operators: w.Operators}, nil
}
