// Package merge implements the reconciliation engine: it concatenates
// normalised rows from every source, applies validity filters, resolves
// identity conflicts and produces the ordered, deduplicated master tables.
package merge

import (
	"sort"

	"github.com/gonzaloobispo/Bioengine/internal/config"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/normalize"
	"github.com/gonzaloobispo/Bioengine/internal/observability"
)

// Weights merges the per-source weight tables into the weight master.
// Tables must already be in source-priority order; earlier tables win when
// two rows carry the exact same timestamp. Dropped rows are tallied on the
// report, never surfaced as errors.
func Weights(tables [][]domain.WeightRecord, cfg config.Pipeline, report *domain.Report) []domain.WeightRecord {
	var working []domain.WeightRecord
	for _, table := range tables {
		working = append(working, table...)
	}

	// Validity filters: the invariant fields first, then the plausible
	// human range so unit-confusion outliers (pounds read as kilos) never
	// reach the daily collapse.
	valid := working[:0:0]
	for _, row := range working {
		switch {
		case row.Timestamp.IsZero():
			drop(report, domain.DropMissingTimestamp)
		case row.WeightKg <= 0:
			drop(report, domain.DropMissingWeight)
		case row.WeightKg < cfg.MinWeightKg || row.WeightKg > cfg.MaxWeightKg:
			drop(report, domain.DropWeightOutOfRange)
		default:
			row.Source = normalize.SourceLabel(row.Source)
			valid = append(valid, row)
		}
	}

	// Daily collapse: one row per calendar day, keeping the latest
	// timestamp within the day. An evening weigh-in is more representative
	// than a morning one, and same-day rows from different sources are not
	// averaged. Equal timestamps resolve to the earlier concatenation
	// position, i.e. the higher-priority source.
	byDay := make(map[string]domain.WeightRecord)
	for _, row := range valid {
		existing, ok := byDay[row.Day()]
		if !ok {
			byDay[row.Day()] = row
			continue
		}
		if row.Timestamp.After(existing.Timestamp) {
			byDay[row.Day()] = row
		}
		drop(report, domain.DropDuplicateDay)
	}

	master := make([]domain.WeightRecord, 0, len(byDay))
	for _, row := range byDay {
		master = append(master, row)
	}
	sort.Slice(master, func(i, j int) bool {
		return master[i].Timestamp.After(master[j].Timestamp)
	})

	report.WeightRows = len(master)
	return master
}

func drop(report *domain.Report, reason domain.DropReason) {
	report.Drop(reason)
	observability.RecordDrop(string(reason))
}
