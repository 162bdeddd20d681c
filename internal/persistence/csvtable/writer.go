// Package csvtable persists the master tables as semicolon-separated files
// with a fixed column order and a configurable decimal convention, so the
// output stays loadable by the spreadsheet tools the historical files were
// built for. Writes are full atomic rewrites; re-running the merge on
// unchanged input reproduces byte-identical files.
package csvtable

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/normalize"
)

// Column orders are part of the external contract; consumers index by
// position as much as by header.
var (
	weightColumns = []string{
		"Date", "Weight (kg)", "Body Fat (%)", "Muscle Mass (kg)", "Source",
	}
	activityColumns = []string{
		"Date", "Type", "Distance (km)", "Duration (min)", "Calories",
		"Avg HR", "Max HR", "Elevation (m)", "Avg Cadence",
		"Equipment", "Event", "Load Score", "Source",
	}
)

// Writer renders master tables to disk.
type Writer struct {
	conv normalize.Convention
}

// NewWriter builds a Writer using the named decimal convention.
func NewWriter(convention string) *Writer {
	return &Writer{conv: normalize.ConventionFor(convention)}
}

// WriteWeights persists the weight master table to path.
func (w *Writer) WriteWeights(path string, rows []domain.WeightRecord) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, weightColumns)
	for _, row := range rows {
		records = append(records, []string{
			timestampField(row.Timestamp),
			normalize.FormatDecimal(domain.Float(row.WeightKg), 2, w.conv),
			normalize.FormatDecimal(row.BodyFatPct, 2, w.conv),
			normalize.FormatDecimal(row.MuscleMassKg, 2, w.conv),
			row.Source,
		})
	}
	return writeAtomic(path, records)
}

// WriteActivities persists the activity master table to path.
func (w *Writer) WriteActivities(path string, rows []domain.ActivityRecord) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, activityColumns)
	for _, row := range rows {
		records = append(records, []string{
			timestampField(row.Timestamp),
			row.ActivityType,
			normalize.FormatDecimal(row.DistanceKm, 2, w.conv),
			normalize.FormatDecimal(row.DurationMin, 1, w.conv),
			normalize.FormatDecimal(row.Calories, 0, w.conv),
			normalize.FormatDecimal(row.AvgHeartRate, 0, w.conv),
			normalize.FormatDecimal(row.MaxHeartRate, 0, w.conv),
			normalize.FormatDecimal(row.ElevationGainM, 0, w.conv),
			normalize.FormatDecimal(row.AvgCadence, 0, w.conv),
			row.Equipment,
			row.EventName,
			normalize.FormatDecimal(row.LoadScore, 1, w.conv),
			row.Source,
		})
	}
	return writeAtomic(path, records)
}

// timestampField writes a date-only form when the time component is
// midnight, mirroring the mixed format the parsers accept.
func timestampField(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// writeAtomic writes the records to a temp file in the target directory and
// renames it into place, so readers never observe a partial table.
func writeAtomic(path string, records [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	writer.Comma = ';'
	if err := writer.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("write table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}
