// Package core holds the domain model: accounts, transactions, money
// handling, and the balance aggregation rules.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDecimalToCents converts a user-typed decimal amount to cents.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted, and a
// third decimal digit rounds half-up. The input is a magnitude: sign prefixes
// are rejected, as are zero and non-numeric strings.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if hasFrac && strings.Contains(fracPart, ".") {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	// ASCII digits only: the cents math below does byte arithmetic, and
	// unicode digit classes would let e.g. "١" slip past it.
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxWhole = (1<<63 - 1) / 100
	if whole > maxWhole {
		return 0, ErrInvalidAmount
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}

	cents := whole*100 + frac
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseSignedDecimalToCents parses a decimal that may be negative or zero,
// used for starting balances. Transaction amounts go through
// ParseDecimalToCents instead, which enforces a positive magnitude.
func ParseSignedDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	trimmed := strings.TrimLeft(strings.ReplaceAll(s, ",", "."), "0.")
	if trimmed == "" {
		// All zeros is a valid starting balance.
		if s == "" {
			return 0, ErrInvalidAmount
		}
		for _, r := range strings.ReplaceAll(s, ",", ".") {
			if r != '0' && r != '.' {
				return 0, ErrInvalidAmount
			}
		}
		return 0, nil
	}
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return 0, err
	}
	if negative {
		return -cents, nil
	}
	return cents, nil
}

// String formats the amount as a plain decimal, e.g. "480.00" or "-120.50".
// Currency symbols and locale formatting belong to the presentation layer.
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}
