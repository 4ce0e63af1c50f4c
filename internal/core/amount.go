// Amount parsing and formatting. Amounts are whole won (no decimals), kept
// as int64 throughout; formatting only groups digits and prefixes the
// currency symbol.
package core

import (
	"strconv"
	"strings"
)

// FormatAmount renders an amount as ₩1,234,567. Negative amounts keep the
// sign in front of the symbol.
func FormatAmount(amount int64) string {
	if amount < 0 {
		return "-₩" + groupDigits(-amount)
	}
	return "₩" + groupDigits(amount)
}

// GroupAmount renders the bare grouped number (1,234,567) for table cells
// and inputs.
func GroupAmount(amount int64) string {
	if amount < 0 {
		return "-" + groupDigits(-amount)
	}
	return groupDigits(amount)
}

func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// ParseAmount extracts the digits from a user- or model-supplied amount
// string, dropping thousands separators and currency symbols. Anything
// without digits parses to 0.
func ParseAmount(s string) int64 {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Truncate shortens display text to max runes, appending an ellipsis.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
