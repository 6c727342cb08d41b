package tabular

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeSpace collapses runs of whitespace (including non-breaking
// spaces, which USAspending sprinkles through cell text) into single
// ASCII spaces and trims the ends.
func NormalizeSpace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// NormalizeAmount reduces a rendered currency string to a canonical
// numeric form so "$1,234.50" and "1234.50" compare equal. Negative
// amounts arrive either with a leading minus or wrapped in parentheses
// (accounting style); both map to a leading "-". Anything with no
// digits at all, including "", canonicalizes to "0". The function never
// fails on malformed input.
func NormalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-") ||
		(strings.Contains(s, "(") && strings.Contains(s, ")"))

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "0"
	}
	if neg {
		return "-" + digits
	}
	return digits
}

// Canonicalize returns a comparison-stable copy of the row: every
// value space-normalized, and values under the given monetary columns
// further reduced with NormalizeAmount. The input row is not mutated.
// Canonicalize is idempotent.
func Canonicalize(row Row, amountCols []string) Row {
	out := make(Row, len(row))
	for k, v := range row {
		vs := NormalizeSpace(v)
		for _, col := range amountCols {
			if k == col {
				vs = NormalizeAmount(vs)
				break
			}
		}
		out[k] = vs
	}
	return out
}
