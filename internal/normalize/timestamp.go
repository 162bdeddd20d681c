package normalize

import (
	"strings"
	"time"
)

// The two shapes a timestamp may legitimately arrive in after adapter-level
// normalisation. Anything else is the adapter's problem.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp parses a mixed date/date-time string, trying the full form
// first. Returns the zero time when neither layout matches; the merge drops
// such rows.
func Timestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
