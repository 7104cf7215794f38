// Package core provides price parsing and classification.
//
// Prices are whole currency units (rupiah), never fractional. Raw user input
// such as "15.000" or "Rp 15.000" is normalized by discarding every non-digit.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	TrendUnset     PriceTrend = "unset"
	TrendIncreased PriceTrend = "increased"
	TrendDecreased PriceTrend = "decreased"
	TrendNeutral   PriceTrend = "neutral"
)

// PriceTrend classifies an entered price against the last known price.
type PriceTrend string

// NormalizePrice strips every non-digit from raw and parses the rest as a
// non-negative integer. Empty or overflowing input yields 0.
//
// Examples:
//
//	NormalizePrice("15.000")    -> 15000
//	NormalizePrice("Rp 2.500")  -> 2500
//	NormalizePrice("")          -> 0
func NormalizePrice(raw string) int64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return 0
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ClassifyPrice compares value with last. last is nil when no history exists.
func ClassifyPrice(value int64, last *int64) PriceTrend {
	if value == 0 {
		return TrendUnset
	}
	if last == nil || *last <= 0 {
		return TrendNeutral
	}
	if value > *last {
		return TrendIncreased
	}
	return TrendDecreased
}

// FormatThousands renders v with dot thousands separators ("15.000"), the
// way the price input echoes what the user typed.
func FormatThousands(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// isBlank reports whether s has only whitespace.
func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
