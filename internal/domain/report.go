package domain

import "time"

// DropReason classifies why a row was excluded from a master table.
type DropReason string

const (
	DropMissingTimestamp  DropReason = "missing_timestamp"
	DropMissingWeight     DropReason = "missing_weight"
	DropWeightOutOfRange  DropReason = "weight_out_of_range"
	DropDuplicateDay      DropReason = "duplicate_day"
	DropDuplicateIdentity DropReason = "duplicate_identity"
	DropNegativeMetric    DropReason = "negative_metric"
)

// Report accumulates per-run observability counters. A merge never fails on
// a bad row; the row's fate shows up here instead.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	SourceRows   map[string]int
	SourceErrors map[string]string
	Drops        map[DropReason]int
	WeightRows   int
	ActivityRows int
	StagesRun    []string
}

// NewReport returns an empty report for the given run.
func NewReport(runID string, startedAt time.Time) *Report {
	return &Report{
		RunID:        runID,
		StartedAt:    startedAt,
		SourceRows:   make(map[string]int),
		SourceErrors: make(map[string]string),
		Drops:        make(map[DropReason]int),
	}
}

// Drop records one excluded row.
func (r *Report) Drop(reason DropReason) {
	r.Drops[reason]++
}

// Dropped returns the count recorded for reason.
func (r *Report) Dropped(reason DropReason) int {
	return r.Drops[reason]
}

// TotalDropped sums every drop category.
func (r *Report) TotalDropped() int {
	total := 0
	for _, n := range r.Drops {
		total += n
	}
	return total
}

// RecordSource notes how many rows a source contributed, or the error that
// made it contribute none.
func (r *Report) RecordSource(name string, rows int, err error) {
	r.SourceRows[name] = rows
	if err != nil {
		r.SourceErrors[name] = err.Error()
	}
}
