// Package core provides the subscription model and the pure visibility,
// aggregation and reminder logic built on it.
//
// This file contains amount parsing and display formatting.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered decimal string to an amount rounded
// half-up to two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is
// allowed (free tiers); negative values and malformed input are rejected.
//
// Examples:
//
//	ParseAmount("199")    -> 199, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
//	ParseAmount("-1")     -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// FormatAmount renders an amount with Indian digit grouping (1,23,456) and
// the given currency symbol. Whole amounts drop the fraction.
func FormatAmount(d decimal.Decimal, symbol string) string {
	neg := d.IsNegative()
	d = d.Abs().Round(2)

	intPart := d.Truncate(0).String()
	frac := ""
	if !d.Equal(d.Truncate(0)) {
		frac = "." + d.Sub(d.Truncate(0)).StringFixed(2)[2:]
	}

	out := symbol + groupIndian(intPart) + frac
	if neg {
		return "-" + out
	}
	return out
}

// groupIndian inserts separators: the last three digits, then pairs.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
