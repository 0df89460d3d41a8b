// Package core provides money parsing and formatting for amounts in đồng.
//
// Amounts are whole đồng. Display follows the vi-VN convention of '.' as
// the thousands separator followed by the "đ" suffix (e.g. 1.200.000đ).
package core

import (
	"strconv"
	"strings"
)

// Dong is an amount in Vietnamese đồng.
type Dong int64

func (d Dong) Validate() error {
	if d <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String formats d for display, e.g. "3.000.000đ".
func (d Dong) String() string {
	return FormatNumber(int64(d)) + "đ"
}

// FormatNumber groups digits by three with '.' separators.
//
// Examples:
//
//	FormatNumber(1300000) -> "1.300.000"
//	FormatNumber(-500)    -> "-500"
func FormatNumber(n int64) string {
	neg := n < 0
	s := strconv.FormatInt(n, 10)
	if neg {
		s = s[1:]
	}
	s = groupDigits(s)
	if neg {
		return "-" + s
	}
	return s
}

// FormatDigits keeps only the digits of an input value and regroups them,
// the way amount inputs are reformatted while typing. Empty input stays empty.
func FormatDigits(value string) string {
	digits := onlyDigits(value)
	if digits == "" {
		return ""
	}
	return groupDigits(digits)
}

// ParseNumber strips everything but digits and parses the rest. Empty or
// unparsable input yields 0, which later fails amount validation.
func ParseNumber(value string) Dong {
	digits := onlyDigits(value)
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return Dong(n)
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func groupDigits(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
