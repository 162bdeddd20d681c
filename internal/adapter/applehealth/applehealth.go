// Package applehealth reads an Apple Health export.xml. The document is a
// flat stream of Record and Workout elements, frequently hundreds of
// megabytes, so it is decoded token-wise and the parsed result is cached by
// file modification time.
package applehealth

import (
	"context"
	"encoding/xml"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gonzaloobispo/Bioengine/internal/adapter/cache"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/normalize"
)

const (
	bodyMassType   = "HKQuantityTypeIdentifierBodyMass"
	distanceType   = "HKQuantityTypeIdentifierDistanceWalkingRunning"
	energyType     = "HKQuantityTypeIdentifierActiveEnergyBurned"
	workoutPrefix  = "HKWorkoutActivityType"
	sourceLabel    = "Apple Health XML"
	cacheWeightKey = "apple_health_weight"
	cacheSportKey  = "apple_health_sport"
)

// Source reads weights and workouts from one export.xml.
type Source struct {
	path  string
	store *cache.Store
}

// New builds a Source. store may be nil to disable caching.
func New(path string, store *cache.Store) *Source {
	return &Source{path: path, store: store}
}

// Name identifies the source in logs and reports.
func (s *Source) Name() string { return domain.SourceApple }

// FetchWeights returns the body-mass records of the export.
func (s *Source) FetchWeights(ctx context.Context) ([]domain.WeightRecord, error) {
	if s.store != nil && s.store.Valid(cacheWeightKey, s.path) {
		var cached []domain.WeightRecord
		if err := s.store.Get(cacheWeightKey, &cached); err == nil {
			return cached, nil
		}
	}
	weights, _, err := s.parse(ctx)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		_ = s.store.Put(cacheWeightKey, weights)
	}
	return weights, nil
}

// FetchActivities returns the workout records of the export.
func (s *Source) FetchActivities(ctx context.Context) ([]domain.ActivityRecord, error) {
	if s.store != nil && s.store.Valid(cacheSportKey, s.path) {
		var cached []domain.ActivityRecord
		if err := s.store.Get(cacheSportKey, &cached); err == nil {
			return cached, nil
		}
	}
	_, activities, err := s.parse(ctx)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		_ = s.store.Put(cacheSportKey, activities)
	}
	return activities, nil
}

func (s *Source) parse(ctx context.Context) ([]domain.WeightRecord, []domain.ActivityRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer f.Close()
	return Parse(ctx, f)
}

// record and workout mirror the export's element shapes; WorkoutStatistics
// children carry the per-workout distance and energy sums.
type record struct {
	Type      string `xml:"type,attr"`
	StartDate string `xml:"startDate,attr"`
	Value     string `xml:"value,attr"`
}

type workout struct {
	ActivityType string              `xml:"workoutActivityType,attr"`
	StartDate    string              `xml:"startDate,attr"`
	Duration     string              `xml:"duration,attr"`
	Statistics   []workoutStatistics `xml:"WorkoutStatistics"`
}

type workoutStatistics struct {
	Type string `xml:"type,attr"`
	Sum  string `xml:"sum,attr"`
}

// Parse streams the export from r. Elements that fail to decode are
// skipped; one corrupt entry must not discard the rest of the archive.
func Parse(ctx context.Context, r io.Reader) ([]domain.WeightRecord, []domain.ActivityRecord, error) {
	decoder := xml.NewDecoder(r)

	var weights []domain.WeightRecord
	var activities []domain.ActivityRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "Record":
			var rec record
			if err := decoder.DecodeElement(&rec, &start); err != nil {
				continue
			}
			if rec.Type != bodyMassType {
				continue
			}
			value := normalize.Decimal(rec.Value)
			if value == nil {
				continue
			}
			weights = append(weights, domain.WeightRecord{
				Timestamp: appleTimestamp(rec.StartDate),
				WeightKg:  *value,
				Source:    sourceLabel,
			})
		case "Workout":
			var w workout
			if err := decoder.DecodeElement(&w, &start); err != nil {
				continue
			}
			row := domain.ActivityRecord{
				Timestamp:    appleTimestamp(w.StartDate),
				ActivityType: strings.TrimPrefix(w.ActivityType, workoutPrefix),
				DurationMin:  normalize.Decimal(w.Duration),
				Source:       sourceLabel,
			}
			for _, stat := range w.Statistics {
				switch stat.Type {
				case distanceType:
					row.DistanceKm = normalize.Decimal(stat.Sum)
				case energyType:
					row.Calories = normalize.Decimal(stat.Sum)
				}
			}
			activities = append(activities, row)
		}
	}
	return weights, activities, nil
}

// appleTimestamp strips the export's timezone suffix
// ("2023-05-01 07:30:21 +0100") down to the naive local form the common
// parser accepts.
func appleTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if len(s) > 19 {
		s = s[:19]
	}
	return normalize.Timestamp(s)
}
