// Package adapter defines the source-adapter contracts. One adapter exists
// per external source; each normalises that source's native record shape
// into the canonical row types. Adapters are stateless and independent: a
// missing file or failed API makes a source contribute zero rows for the
// run, it never aborts the merge.
package adapter

import (
	"context"
	"strings"

	"github.com/gonzaloobispo/Bioengine/internal/domain"
)

// WeightSource fetches normalised weight rows from one source.
type WeightSource interface {
	Name() string
	FetchWeights(ctx context.Context) ([]domain.WeightRecord, error)
}

// ActivitySource fetches normalised activity rows from one source.
type ActivitySource interface {
	Name() string
	FetchActivities(ctx context.Context) ([]domain.ActivityRecord, error)
}

// ColumnIndex locates a column by any of its historical header spellings,
// case-insensitively. Returns -1 when none match; callers treat the column
// as absent and its fields as null, so schema drift in a source never
// crashes a run.
func ColumnIndex(header []string, aliases ...string) int {
	for i, col := range header {
		col = strings.TrimSpace(col)
		for _, alias := range aliases {
			if strings.EqualFold(col, alias) {
				return i
			}
		}
	}
	return -1
}

// Field returns the trimmed cell at idx, or "" when the column is absent or
// the record is short.
func Field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
