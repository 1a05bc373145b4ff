// Package utils provides common utility functions for VietVal.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatVND formats an amount in Vietnamese đồng (62.300 ₫).
// Vietnamese convention groups thousands with dots and carries no
// decimal part: the đồng has no circulating subunit.
func FormatVND(amount float64) string {
	negative := amount < 0
	intPart := int64(math.Round(math.Abs(amount)))

	formatted := formatGrouped(intPart)

	if negative {
		return "-" + formatted + " ₫"
	}
	return formatted + " ₫"
}

// FormatVNDCompact formats an amount in compact Vietnamese notation.
// e.g., 1.5e12 → "1,5 nghìn tỷ ₫", 9.5e9 → "9,5 tỷ ₫", 2.3e6 → "2,3 triệu ₫"
func FormatVNDCompact(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	prefix := ""
	if negative {
		prefix = "-"
	}

	switch {
	case amount >= 1e12:
		return fmt.Sprintf("%s%s nghìn tỷ ₫", prefix, formatWithDecimals(amount/1e12))
	case amount >= 1e9:
		return fmt.Sprintf("%s%s tỷ ₫", prefix, formatWithDecimals(amount/1e9))
	case amount >= 1e6:
		return fmt.Sprintf("%s%s triệu ₫", prefix, formatWithDecimals(amount/1e6))
	case amount >= 1e3:
		return fmt.Sprintf("%s%s nghìn ₫", prefix, formatWithDecimals(amount/1e3))
	default:
		return fmt.Sprintf("%s%s ₫", prefix, formatWithDecimals(amount))
	}
}

// ToBillions converts a raw VND amount to billions (tỷ).
func ToBillions(amount float64) float64 {
	return amount / 1e9
}

// FromBillions converts billions (tỷ) to a raw VND amount.
func FromBillions(billions float64) float64 {
	return billions * 1e9
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatVolume formats share volume in human-readable form.
// e.g., 1500000 → "1,5 triệu", 25000 → "25 nghìn"
func FormatVolume(volume int64) string {
	v := float64(volume)
	switch {
	case v >= 1e9:
		return formatWithDecimals(v/1e9) + " tỷ"
	case v >= 1e6:
		return formatWithDecimals(v/1e6) + " triệu"
	case v >= 1e3:
		return formatWithDecimals(v/1e3) + " nghìn"
	default:
		return fmt.Sprintf("%d", volume)
	}
}

// formatGrouped formats an integer with dot thousands separators,
// the Vietnamese grouping convention (62300 → "62.300").
func formatGrouped(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	result := s[len(s)-3:]
	remaining := s[:len(s)-3]

	for len(remaining) > 0 {
		if len(remaining) > 3 {
			result = remaining[len(remaining)-3:] + "." + result
			remaining = remaining[:len(remaining)-3]
		} else {
			result = remaining + "." + result
			remaining = ""
		}
	}

	return result
}

// formatWithDecimals formats a number with up to 2 decimal places using
// the Vietnamese decimal comma, removing trailing zeros.
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return strings.ReplaceAll(s, ".", ",")
}
