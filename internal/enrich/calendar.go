// Package enrich computes the derived per-activity fields: the mechanical
// load score and the equipment assignment. Both need the merged weight
// table and, when present, the scheduled-race calendar.
package enrich

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/gonzaloobispo/Bioengine/internal/normalize"
)

// CalendarEntry is one scheduled event: a race day with the equipment
// planned for it.
type CalendarEntry struct {
	Day       string
	Name      string
	Equipment string
}

// Calendar indexes scheduled events by calendar day.
type Calendar map[string]CalendarEntry

// LoadCalendar reads the race calendar CSV (Date;Name;Equipment). A missing
// file yields an empty calendar, not an error; rows with an unparseable
// date are skipped.
func LoadCalendar(path string) (Calendar, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Calendar{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return ReadCalendar(f)
}

// ReadCalendar parses calendar rows from r.
func ReadCalendar(r io.Reader) (Calendar, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	cal := Calendar{}
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
		if len(record) < 3 {
			continue
		}
		ts := normalize.Timestamp(record[0])
		if ts.IsZero() {
			continue
		}
		day := ts.Format("2006-01-02")
		cal[day] = CalendarEntry{
			Day:       day,
			Name:      strings.TrimSpace(record[1]),
			Equipment: strings.TrimSpace(record[2]),
		}
	}
	return cal, nil
}
