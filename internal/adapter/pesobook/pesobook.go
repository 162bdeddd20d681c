// Package pesobook rescues the 2014-era weight history kept in the legacy
// PesoBook spreadsheet export (lower-case fecha/peso_kg headers, comma
// separated). It only ever yields weight rows.
package pesobook

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/gonzaloobispo/Bioengine/internal/adapter"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/normalize"
)

// Source reads the PesoBook history CSV.
type Source struct {
	path string
}

// New builds a Source for the given CSV path.
func New(path string) *Source {
	return &Source{path: path}
}

// Name identifies the source in logs and reports.
func (s *Source) Name() string { return domain.SourcePesoBook }

// FetchWeights parses the history file. A missing file yields zero rows.
func (s *Source) FetchWeights(ctx context.Context) ([]domain.WeightRecord, error) {
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

// Parse reads PesoBook rows from r.
func Parse(ctx context.Context, r io.Reader) ([]domain.WeightRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dateCol := adapter.ColumnIndex(header, "fecha", "Fecha", "Date")
	weightCol := adapter.ColumnIndex(header, "peso_kg", "Peso", "Weight (kg)")

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
		if weight == nil {
			continue
		}
		rows = append(rows, domain.WeightRecord{
			Timestamp: normalize.Timestamp(adapter.Field(record, dateCol)),
			WeightKg:  *weight,
			Source:    "PesoBook (Histórico)",
		})
	}
	return rows, nil
}
