// Package core defines the transaction data model and identity rules.
//
// This file contains the amount conversion used everywhere a decimal
// currency value becomes part of a transaction id.
package core

import (
	"math"
	"strconv"
	"strings"
)

// CentsFromFloat converts a decimal currency amount to integer cents,
// rounding to the nearest cent with ties away from zero. The same rule is
// applied on every path that derives a transaction id (manual creation,
// CSV import, memo lookup), so equal inputs always produce equal ids.
//
// The input is a binary float, so whether an amount written as an exact
// tie actually hits the tie depends on where its nearest float64 and the
// scaled product land:
//
//	CentsFromFloat(10.005)  -> 1001 (10.005*100 is 1000.5000000000001)
//	CentsFromFloat(10.0051) -> 1001
//	CentsFromFloat(-2.675)  -> -268 (-2.675*100 is exactly -267.5)
func CentsFromFloat(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ParseAmountToCents parses a decimal string and converts it to cents with
// CentsFromFloat. Negative amounts are valid (debits).
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return CentsFromFloat(v), nil
}
