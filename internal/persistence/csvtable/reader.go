package csvtable

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/normalize"
)

// Reader loads persisted master tables. It must be built with the same
// decimal convention the tables were written under, because grouped
// integers are ambiguous without it.
type Reader struct {
	conv normalize.Convention
}

// NewReader builds a Reader using the named decimal convention.
func NewReader(convention string) *Reader {
	return &Reader{conv: normalize.ConventionFor(convention)}
}

// ReadWeights loads a persisted weight master table. A missing file is an
// empty table. Rows whose timestamp or weight fail to parse are skipped,
// matching the tolerance the merge applies on the way in.
func (r *Reader) ReadWeights(path string) ([]domain.WeightRecord, error) {
	records, err := readAll(path)
	if err != nil || records == nil {
		return nil, err
	}

	rows := make([]domain.WeightRecord, 0, len(records))
	for _, record := range records {
		if len(record) < 5 {
			continue
		}
		ts := normalize.Timestamp(record[0])
		if ts.IsZero() {
			continue
		}
		weight := normalize.ParseFormatted(record[1], r.conv)
		if weight == nil {
			continue
		}
		rows = append(rows, domain.WeightRecord{
			Timestamp:    ts,
			WeightKg:     *weight,
			BodyFatPct:   normalize.ParseFormatted(record[2], r.conv),
			MuscleMassKg: normalize.ParseFormatted(record[3], r.conv),
			Source:       record[4],
		})
	}
	return rows, nil
}

// ReadActivities loads a persisted activity master table.
func (r *Reader) ReadActivities(path string) ([]domain.ActivityRecord, error) {
	records, err := readAll(path)
	if err != nil || records == nil {
		return nil, err
	}

	rows := make([]domain.ActivityRecord, 0, len(records))
	for _, record := range records {
		if len(record) < 13 {
			continue
		}
		ts := normalize.Timestamp(record[0])
		if ts.IsZero() {
			continue
		}
		rows = append(rows, domain.ActivityRecord{
			Timestamp:      ts,
			ActivityType:   record[1],
			DistanceKm:     normalize.ParseFormatted(record[2], r.conv),
			DurationMin:    normalize.ParseFormatted(record[3], r.conv),
			Calories:       normalize.ParseFormatted(record[4], r.conv),
			AvgHeartRate:   normalize.ParseFormatted(record[5], r.conv),
			MaxHeartRate:   normalize.ParseFormatted(record[6], r.conv),
			ElevationGainM: normalize.ParseFormatted(record[7], r.conv),
			AvgCadence:     normalize.ParseFormatted(record[8], r.conv),
			Equipment:      record[9],
			EventName:      record[10],
			LoadScore:      normalize.ParseFormatted(record[11], r.conv),
			Source:         record[12],
		})
	}
	return rows, nil
}

// readAll returns the data records of a semicolon CSV, without the header.
// A missing file yields nil records and no error.
func readAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	var records [][]string
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
