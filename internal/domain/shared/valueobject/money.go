package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	EUR Currency = "EUR" // Euro (default)
	XOF Currency = "XOF" // West African CFA franc
	XAF Currency = "XAF" // Central African CFA franc
	USD Currency = "USD" // US Dollar
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = EUR

// ParseCurrency normalises a currency code, falling back to the default when empty.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	if len(code) != 3 {
		return "", fmt.Errorf("invalid currency code %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("invalid currency code %q", code)
		}
	}
	return Currency(code), nil
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// CentPlaces is the number of decimal places kept for stored amounts.
const CentPlaces int32 = 2

// Tolerance is one cent: two sums closer than this are considered equal.
var Tolerance = decimal.New(1, -2)

// RoundCents rounds half away from zero to cent granularity.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// Balanced reports whether |a-b| < Tolerance.
func Balanced(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}

// FormatFixed renders an amount with exactly two decimals using a dot separator.
func FormatFixed(d decimal.Decimal) string {
	return d.StringFixed(CentPlaces)
}
