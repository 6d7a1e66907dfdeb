package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmountMinor parses a decimal amount string into integer minor units
// (cents). Sub-cent precision is truncated toward zero, matching the reference
// behavior of int(amount * 100). Counters accumulate these integers so totals
// stay exact under repeated addition.
func ParseAmountMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse amount: empty string")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d.Shift(2).IntPart(), nil
}

// FormatMinor renders minor units as a currency string, e.g. 1500 -> "$15.00".
func FormatMinor(minor int64) string {
	d := decimal.New(minor, -2)
	if d.Sign() < 0 {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
