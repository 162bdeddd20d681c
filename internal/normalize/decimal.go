// Package normalize canonicalises the heterogeneous field encodings found
// across the historical sources: locale-specific decimals, mixed timestamp
// shapes, free-text activity categories and accumulated source-name aliases.
// Every function here is total; malformed input maps to a nil or sentinel
// value so one bad row can never abort a batch.
package normalize

import (
	"strconv"
	"strings"
)

// Decimal parses a number that may use either European ("1.234,56", "82,4")
// or plain dot-decimal ("82.4") notation. A comma anywhere is taken as the
// decimal separator and dots are stripped as grouping. Returns nil when the
// value is empty or unparseable.
func Decimal(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Convention selects the decimal/grouping separators used when writing
// master tables. The historical files use the European convention so that
// spreadsheet tools configured for es locales load them cleanly.
type Convention struct {
	Decimal  byte
	Grouping byte
}

var (
	// ConventionES writes "1.234,56".
	ConventionES = Convention{Decimal: ',', Grouping: '.'}
	// ConventionEN writes "1,234.56".
	ConventionEN = Convention{Decimal: '.', Grouping: ','}
)

// ConventionFor maps a configuration name onto a Convention, defaulting to
// the European one used by the historical masters.
func ConventionFor(name string) Convention {
	if strings.EqualFold(name, "en") {
		return ConventionEN
	}
	return ConventionES
}

// ParseFormatted parses a number written by FormatDecimal under a known
// convention. Unlike Decimal, which guesses the separator role, this strips
// the convention's grouping separator outright, so grouped integers like
// "1.234" read back as 1234 rather than 1.234. Nil on empty or unparseable
// input.
func ParseFormatted(s string, conv Convention) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, string(conv.Grouping), "")
	s = strings.Replace(s, string(conv.Decimal), ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// FormatDecimal renders v with the given number of decimals under the
// convention, grouping thousands. A nil value renders as the empty string.
func FormatDecimal(v *float64, decimals int, conv Convention) string {
	if v == nil {
		return ""
	}
	s := strconv.FormatFloat(*v, 'f', decimals, 64)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, digit := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(conv.Grouping)
		}
		b.WriteByte(digit)
	}
	if fracPart != "" {
		b.WriteByte(conv.Decimal)
		b.WriteString(fracPart)
	}
	return b.String()
}
