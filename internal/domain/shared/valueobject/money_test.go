package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("")
	require.NoError(t, err)
	assert.Equal(t, EUR, c)

	c, err = ParseCurrency(" xof ")
	require.NoError(t, err)
	assert.Equal(t, XOF, c)

	_, err = ParseCurrency("EURO")
	assert.Error(t, err)
	_, err = ParseCurrency("E1R")
	assert.Error(t, err)
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"-1.005", "-1.01"},
		{"2.004", "2"},
		{"0.125", "0.13"},
		{"-0.125", "-0.13"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundCents(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestBalanced(t *testing.T) {
	assert.True(t, Balanced(decimal.RequireFromString("100.00"), decimal.RequireFromString("100.009")))
	assert.False(t, Balanced(decimal.RequireFromString("100.00"), decimal.RequireFromString("100.01")))
	assert.False(t, Balanced(decimal.RequireFromString("100.02"), decimal.RequireFromString("100")))
}

func TestFormatFixed(t *testing.T) {
	assert.Equal(t, "12.50", FormatFixed(decimal.RequireFromString("12.5")))
	assert.Equal(t, "0.00", FormatFixed(decimal.Zero))
	assert.Equal(t, "-3.46", FormatFixed(decimal.RequireFromString("-3.455")))
}
