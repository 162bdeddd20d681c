// Package runkeeper reads a Runkeeper account export: cardioActivities.csv
// for workouts and measurements.csv for body weight. Runkeeper changed its
// header spellings over the years, so every column is looked up through its
// alias list and treated as null when absent.
package runkeeper

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gonzaloobispo/Bioengine/internal/adapter"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/normalize"
)

// Source reads a Runkeeper export directory.
type Source struct {
	dir string
}

// New builds a Source for the export directory.
func New(dir string) *Source {
	return &Source{dir: dir}
}

// Name identifies the source in logs and reports.
func (s *Source) Name() string { return domain.SourceRunkeeper }

// FetchActivities parses cardioActivities.csv. Missing file, zero rows.
func (s *Source) FetchActivities(ctx context.Context) ([]domain.ActivityRecord, error) {
	f, err := os.Open(filepath.Join(s.dir, "cardioActivities.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return ParseActivities(ctx, f)
}

// FetchWeights parses measurements.csv. Missing file, zero rows.
func (s *Source) FetchWeights(ctx context.Context) ([]domain.WeightRecord, error) {
	f, err := os.Open(filepath.Join(s.dir, "measurements.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return ParseWeights(ctx, f)
}

// ParseActivities reads Runkeeper cardio rows from r.
func ParseActivities(ctx context.Context, r io.Reader) ([]domain.ActivityRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dateCol := adapter.ColumnIndex(header, "Date")
	typeCol := adapter.ColumnIndex(header, "Type")
	distCol := adapter.ColumnIndex(header, "Distance (km)")
	durCol := adapter.ColumnIndex(header, "Duration", "Duration (min)")
	calCol := adapter.ColumnIndex(header, "Calories Burned", "Calories")
	hrCol := adapter.ColumnIndex(header, "Average Heart Rate (bpm)", "Average Heart Rate", "Average HR")
	climbCol := adapter.ColumnIndex(header, "Climb (m)", "Elevation Gain")

	var rows []domain.ActivityRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rows = append(rows, domain.ActivityRecord{
			Timestamp:      normalize.Timestamp(adapter.Field(record, dateCol)),
			ActivityType:   adapter.Field(record, typeCol),
			DistanceKm:     normalize.Decimal(adapter.Field(record, distCol)),
			DurationMin:    durationMinutes(adapter.Field(record, durCol)),
			Calories:       normalize.Decimal(adapter.Field(record, calCol)),
			AvgHeartRate:   normalize.Decimal(adapter.Field(record, hrCol)),
			ElevationGainM: normalize.Decimal(adapter.Field(record, climbCol)),
			Source:         domain.SourceRunkeeper,
		})
	}
	return rows, nil
}

// ParseWeights reads Runkeeper measurement rows from r. Non-positive
// weights are dropped here; they are sensor glitches, not records.
func ParseWeights(ctx context.Context, r io.Reader) ([]domain.WeightRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dateCol := adapter.ColumnIndex(header, "Date")
	weightCol := adapter.ColumnIndex(header, "Weight (kg)", "Weight")

	var rows []domain.WeightRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		weight := normalize.Decimal(adapter.Field(record, weightCol))
		if weight == nil || *weight <= 0 {
			continue
		}
		rows = append(rows, domain.WeightRecord{
			Timestamp: normalize.Timestamp(adapter.Field(record, dateCol)),
			WeightKg:  *weight,
			Source:    domain.SourceRunkeeper,
		})
	}
	return rows, nil
}

// durationMinutes accepts either a plain decimal number of minutes or the
// "HH:MM:SS" / "MM:SS" clock form older exports use.
func durationMinutes(s string) *float64 {
	if !strings.Contains(s, ":") {
		return normalize.Decimal(s)
	}
	parts := strings.Split(s, ":")
	total := 0.0
	for _, part := range parts {
		v := normalize.Decimal(part)
		if v == nil {
			return nil
		}
		total = total*60 + *v
	}
	// total is in seconds for HH:MM:SS and MM:SS alike.
	return domain.Float(total / 60)
}
