// Package garmincsv reads the semicolon-separated activity history exported
// by the Garmin collector. The file keeps the collector's legacy Spanish
// headers; this adapter maps them onto the canonical row shape.
package garmincsv

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/gonzaloobispo/Bioengine/internal/adapter"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/normalize"
)

// Source reads Garmin activities from a collector CSV.
type Source struct {
	path string
}

// New builds a Source for the given CSV path.
func New(path string) *Source {
	return &Source{path: path}
}

// Name identifies the source in logs and reports.
func (s *Source) Name() string { return domain.SourceGarmin }

// FetchActivities parses the collector CSV. A missing file yields zero rows.
func (s *Source) FetchActivities(ctx context.Context) ([]domain.ActivityRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return Parse(ctx, f)
}

// Parse reads collector rows from r. Rows with an unparseable timestamp are
// kept with a zero timestamp; the merge drops and counts them.
func Parse(ctx context.Context, r io.Reader) ([]domain.ActivityRecord, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cols := struct {
		date, kind, distance, duration, calories int
		avgHR, maxHR, elevation, cadence, source int
	}{
		date:      adapter.ColumnIndex(header, "Fecha", "Date"),
		kind:      adapter.ColumnIndex(header, "Tipo", "Type"),
		distance:  adapter.ColumnIndex(header, "Distancia (km)", "Distance (km)"),
		duration:  adapter.ColumnIndex(header, "Duracion (min)", "Duration (min)"),
		calories:  adapter.ColumnIndex(header, "Calorias", "Calories"),
		avgHR:     adapter.ColumnIndex(header, "FC Media", "Average HR", "Average Heart Rate"),
		maxHR:     adapter.ColumnIndex(header, "FC Max", "Max HR"),
		elevation: adapter.ColumnIndex(header, "Elevacion (m)", "Elevation Gain"),
		cadence:   adapter.ColumnIndex(header, "Cadencia_Media", "Avg Cadence"),
		source:    adapter.ColumnIndex(header, "Fuente", "Source"),
	}

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

		source := adapter.Field(record, cols.source)
		if source == "" {
			source = "Garmin Cloud"
		}
		rows = append(rows, domain.ActivityRecord{
			Timestamp:      normalize.Timestamp(adapter.Field(record, cols.date)),
			ActivityType:   adapter.Field(record, cols.kind),
			DistanceKm:     normalize.Decimal(adapter.Field(record, cols.distance)),
			DurationMin:    normalize.Decimal(adapter.Field(record, cols.duration)),
			Calories:       normalize.Decimal(adapter.Field(record, cols.calories)),
			AvgHeartRate:   normalize.Decimal(adapter.Field(record, cols.avgHR)),
			MaxHeartRate:   normalize.Decimal(adapter.Field(record, cols.maxHR)),
			ElevationGainM: normalize.Decimal(adapter.Field(record, cols.elevation)),
			AvgCadence:     normalize.Decimal(adapter.Field(record, cols.cadence)),
			Source:         source,
		})
	}
	return rows, nil
}
