// Package domain defines the canonical record types produced by the merge
// pipeline and consumed by everything downstream.
package domain

import "time"

// Canonical provenance labels. Adapters may emit historical variants; the
// normalize package collapses them onto this set.
const (
	SourceGarmin    = "Garmin"
	SourceWithings  = "Withings"
	SourceApple     = "Apple"
	SourceRunkeeper = "Runkeeper"
	SourcePesoBook  = "PesoBook"
)

// WeightRecord is one body-composition measurement. WeightKg is mandatory;
// a record without it never enters the merge. Optional fields stay nil when
// the source did not report them, and are never backfilled across rows.
type WeightRecord struct {
	Timestamp    time.Time
	WeightKg     float64
	BodyFatPct   *float64
	MuscleMassKg *float64
	Source       string
}

// Day returns the calendar day the measurement belongs to, which is the
// grouping key for the daily collapse.
func (r WeightRecord) Day() string {
	return r.Timestamp.Format("2006-01-02")
}

// ActivityRecord is one workout. Timestamp is mandatory. Equipment,
// EventName and LoadScore are empty until the enrichment pass fills them.
type ActivityRecord struct {
	Timestamp      time.Time
	ActivityType   string
	DistanceKm     *float64
	DurationMin    *float64
	Calories       *float64
	AvgHeartRate   *float64
	MaxHeartRate   *float64
	ElevationGainM *float64
	AvgCadence     *float64
	Source         string

	Equipment string
	EventName string
	LoadScore *float64
}

// Float returns a pointer to v. Adapters and tests build optional fields
// with it.
func Float(v float64) *float64 { return &v }
