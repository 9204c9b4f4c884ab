package phone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ConsistentE164(t *testing.T) {
	n := NewNormalizer("US")
	inputs := []string{
		"(516) 477-0955",
		"516-477-0955",
		"5164770955",
		"1 516 477 0955",
		"+1 516 477 0955",
		"+15164770955",
	}
	for _, in := range inputs {
		got, err := n.Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, "+15164770955", got, in)
	}
}

func TestNormalize_RejectsMalformed(t *testing.T) {
	n := NewNormalizer("US")
	for _, in := range []string{"", "   ", "abc", "12", "call me maybe"} {
		_, err := n.Normalize(in)
		assert.True(t, errors.Is(err, ErrInvalidPhone), "input %q", in)
	}
}

func TestNormalize_InternationalNumber(t *testing.T) {
	n := NewNormalizer("US")
	got, err := n.Normalize("+44 20 7183 8750")
	require.NoError(t, err)
	assert.Equal(t, "+442071838750", got)
}

func TestFallback_DigitRules(t *testing.T) {
	cases := map[string]string{
		"15551234567":   "+15551234567",
		"555 123 4567":  "+15551234567",
		"+49 123456789": "+49123456789",
	}
	for in, want := range cases {
		got, err := fallback(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := fallback("12345")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}
