package expression

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeSolveReturnsValue(t *testing.T) {
	c := Code{Value: "abcde"}

	got, err := c.Solve()
	require.NoError(t, err)
	assert.Equal(t, "abcde", got)
	assert.Equal(t, "abcde", c.String())
	assert.Equal(t, KindCode, c.Kind())
}

func TestGenerateCodeLength(t *testing.T) {
	for _, n := range []int{1, 4, 5, 12, MaxCodeLength} {
		c, err := GenerateCode(n)
		require.NoError(t, err)
		assert.Len(t, c.Value, n)
		for _, r := range c.Value {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestGenerateCodeDefaultLength(t *testing.T) {
	c, err := GenerateCode(0)
	require.NoError(t, err)
	assert.Len(t, c.Value, DefaultCodeLength)
}

func TestGenerateCodeRejectsOversized(t *testing.T) {
	_, err := GenerateCode(MaxCodeLength + 1)
	assert.ErrorIs(t, err, ErrMalformedExpression)
}
