package enrich

import (
	"math"

	"github.com/gonzaloobispo/Bioengine/internal/config"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/normalize"
)

// Enricher fills the derived fields of merged activity rows.
type Enricher struct {
	cfg      config.Pipeline
	calendar Calendar
	weights  map[string]float64
}

// New builds an Enricher. weights is the merged weight master; its rows are
// indexed by calendar day for the exact-day lookup the load score needs.
func New(cfg config.Pipeline, calendar Calendar, weights []domain.WeightRecord) *Enricher {
	byDay := make(map[string]float64, len(weights))
	for _, w := range weights {
		byDay[w.Day()] = w.WeightKg
	}
	if calendar == nil {
		calendar = Calendar{}
	}
	return &Enricher{cfg: cfg, calendar: calendar, weights: byDay}
}

// Apply computes equipment, event name and load score for every row in
// place. Rules run in fixed priority order on every call; nothing is cached
// across runs.
func (e *Enricher) Apply(rows []domain.ActivityRecord) {
	for i := range rows {
		e.assignEquipment(&rows[i])
		rows[i].LoadScore = domain.Float(e.loadScore(rows[i]))
	}
}

// assignEquipment applies the priority-ordered rule match: scheduled event
// first, then racquet sport, then the default training equipment.
func (e *Enricher) assignEquipment(row *domain.ActivityRecord) {
	day := row.Timestamp.Format("2006-01-02")
	if entry, ok := e.calendar[day]; ok {
		row.Equipment = entry.Equipment
		if row.Equipment == "" {
			row.Equipment = e.cfg.DefaultEquipment
		}
		row.EventName = entry.Name
		if row.EventName == "" {
			row.EventName = e.cfg.CalendarEventName
		}
		return
	}
	if row.ActivityType == normalize.ActivityTennis {
		row.Equipment = e.cfg.RacquetEquipment
		row.EventName = e.cfg.RacquetEventName
		return
	}
	row.Equipment = e.cfg.DefaultEquipment
	row.EventName = e.cfg.DefaultEventName
}

// loadScore models cumulative joint stress:
//
//	(duration × activity coefficient) × weight penalty + elevation × coefficient
//
// The weight penalty grows with every kilo above the reference weight. Body
// weight comes from the weight master by exact day, falling back to the
// configured default when that day has no measurement.
func (e *Enricher) loadScore(row domain.ActivityRecord) float64 {
	coefficient, ok := e.cfg.ActivityCoefficients[row.ActivityType]
	if !ok {
		coefficient = e.cfg.DefaultCoefficient
	}

	weight, ok := e.weights[row.Timestamp.Format("2006-01-02")]
	if !ok {
		weight = e.cfg.DefaultWeightKg
	}
	penalty := 1 + math.Max(0, weight-e.cfg.ReferenceWeightKg)*e.cfg.WeightPenaltyRate

	duration := 0.0
	if row.DurationMin != nil {
		duration = *row.DurationMin
	}
	elevation := 0.0
	if row.ElevationGainM != nil {
		elevation = *row.ElevationGainM
	}

	score := duration*coefficient*penalty + elevation*e.cfg.ElevationCoefficient
	return math.Round(score*10) / 10
}
