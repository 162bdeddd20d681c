package merge

import (
	"fmt"
	"sort"

	"github.com/gonzaloobispo/Bioengine/internal/config"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/normalize"
)

// Activities merges the per-source activity tables into the activity
// master. Tables must be in source-priority order: when a phone and a watch
// both logged the same session, the earlier (higher-fidelity) table's row
// survives and the other is discarded so aggregates never double-count.
func Activities(tables [][]domain.ActivityRecord, cfg config.Pipeline, report *domain.Report) []domain.ActivityRecord {
	var working []domain.ActivityRecord
	for _, table := range tables {
		working = append(working, table...)
	}

	seen := make(map[identity]struct{})
	master := make([]domain.ActivityRecord, 0, len(working))
	for _, row := range working {
		if row.Timestamp.IsZero() {
			drop(report, domain.DropMissingTimestamp)
			continue
		}

		// Category normalisation runs before deduplication so the same
		// sport reported under different native vocabularies collapses to
		// one identity.
		row.ActivityType = normalize.ActivityType(row.ActivityType)
		row.Source = normalize.SourceLabel(row.Source)
		if clampNegatives(&row) {
			drop(report, domain.DropNegativeMetric)
		}

		id := identityOf(row)
		if _, dup := seen[id]; dup {
			drop(report, domain.DropDuplicateIdentity)
			continue
		}
		seen[id] = struct{}{}
		master = append(master, row)
	}

	sort.SliceStable(master, func(i, j int) bool {
		return master[i].Timestamp.After(master[j].Timestamp)
	})

	report.ActivityRows = len(master)
	return master
}

// identity is the tuple that decides whether two raw rows describe the same
// real-world event. Distance participates rounded to two decimals, matching
// the precision the sources report. Two genuinely different sessions at the
// same minute with coincidentally equal distance would collapse; the dedupe
// is deliberately conservative.
type identity struct {
	timestamp    int64
	activityType string
	distance     string
}

func identityOf(row domain.ActivityRecord) identity {
	id := identity{
		timestamp:    row.Timestamp.Unix(),
		activityType: row.ActivityType,
	}
	if row.DistanceKm != nil {
		id.distance = fmt.Sprintf("%.2f", *row.DistanceKm)
	}
	return id
}

// clampNegatives nils out metrics that can never legitimately be negative,
// reporting whether anything was discarded. The row itself survives.
func clampNegatives(row *domain.ActivityRecord) bool {
	found := false
	for _, field := range []**float64{
		&row.DistanceKm, &row.DurationMin, &row.Calories,
		&row.AvgHeartRate, &row.MaxHeartRate, &row.ElevationGainM, &row.AvgCadence,
	} {
		if *field != nil && **field < 0 {
			*field = nil
			found = true
		}
	}
	return found
}
