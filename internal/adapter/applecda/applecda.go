// Package applecda scavenges body-weight observations out of the clinical
// document (CDA) XMLs that ship alongside an Apple Health export. Weight
// observations carry the LOINC code 3141-9; their effectiveTime uses the
// compact HL7 form. The scan walks every non-export XML under the export
// directory and is cached by directory modification time.
package applecda

import (
	"context"
	"encoding/xml"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gonzaloobispo/Bioengine/internal/adapter/cache"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/normalize"
)

const (
	loincBodyWeight = "3141-9"
	hl7TimeLayout   = "20060102150405"
	sourceLabel     = "Apple CDA (Medical Doc)"
	cacheKey        = "apple_cda_weight"
)

// Source scans a directory of CDA documents.
type Source struct {
	dir   string
	store *cache.Store
}

// New builds a Source. store may be nil to disable caching.
func New(dir string, store *cache.Store) *Source {
	return &Source{dir: dir, store: store}
}

// Name identifies the source in logs and reports.
func (s *Source) Name() string { return domain.SourceApple }

// FetchWeights extracts every weight observation found under the directory.
// Unreadable or malformed documents are skipped individually.
func (s *Source) FetchWeights(ctx context.Context) ([]domain.WeightRecord, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil, nil
	}
	if s.store != nil && s.store.Valid(cacheKey, s.dir) {
		var cached []domain.WeightRecord
		if err := s.store.Get(cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	var rows []domain.WeightRecord
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".xml") || strings.Contains(d.Name(), "export") {
			return nil
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil
		}
		defer f.Close()
		parsed, parseErr := Parse(ctx, f)
		if parseErr != nil {
			return nil
		}
		rows = append(rows, parsed...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows = dedupe(rows)
	if s.store != nil {
		_ = s.store.Put(cacheKey, rows)
	}
	return rows, nil
}

// observation matches the CDA elements of interest; the hl7 namespace is
// implied by the local names.
type observation struct {
	Code struct {
		Code string `xml:"code,attr"`
	} `xml:"code"`
	Value struct {
		Value string `xml:"value,attr"`
	} `xml:"value"`
	EffectiveTime struct {
		Value string `xml:"value,attr"`
	} `xml:"effectiveTime"`
}

// Parse extracts weight observations from a single CDA document.
func Parse(ctx context.Context, r io.Reader) ([]domain.WeightRecord, error) {
	decoder := xml.NewDecoder(r)

	var rows []domain.WeightRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "observation" {
			continue
		}

		var obs observation
		if err := decoder.DecodeElement(&obs, &start); err != nil {
			continue
		}
		if obs.Code.Code != loincBodyWeight {
			continue
		}
		weight := normalize.Decimal(obs.Value.Value)
		if weight == nil {
			continue
		}
		ts, err := time.ParseInLocation(hl7TimeLayout, obs.EffectiveTime.Value, time.Local)
		if err != nil {
			ts = time.Time{}
		}
		rows = append(rows, domain.WeightRecord{
			Timestamp: ts,
			WeightKg:  *weight,
			Source:    sourceLabel,
		})
	}
	return rows, nil
}

// dedupe removes exact (timestamp, weight) duplicates; the same observation
// often appears in several documents of one export.
func dedupe(rows []domain.WeightRecord) []domain.WeightRecord {
	type key struct {
		ts     int64
		weight float64
	}
	seen := make(map[key]struct{}, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		k := key{ts: row.Timestamp.Unix(), weight: row.WeightKg}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row)
	}
	return out
}
