// Package observability exposes Prometheus metrics for the merge pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	rowsDroppedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bioengine",
		Subsystem: "merge",
		Name:      "rows_dropped_total",
		Help:      "Rows excluded from a master table, by reason.",
	}, []string{"reason"})
	sourceErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bioengine",
		Subsystem: "merge",
		Name:      "source_errors_total",
		Help:      "Fetch failures per source; a failed source contributes zero rows.",
	}, []string{"source"})
	mergeRunsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bioengine",
		Subsystem: "merge",
		Name:      "runs_total",
		Help:      "Completed merge runs.",
	})
	lastMergeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bioengine",
		Subsystem: "merge",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed merge run.",
	})
	masterRowsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bioengine",
		Subsystem: "merge",
		Name:      "master_rows",
		Help:      "Row count of each master table after the last run.",
	}, []string{"table"})
)

func init() {
	prometheus.MustRegister(rowsDroppedCounter, sourceErrorCounter, mergeRunsCounter, lastMergeGauge, masterRowsGauge)
}

// RecordDrop counts one excluded row.
func RecordDrop(reason string) {
	rowsDroppedCounter.WithLabelValues(reason).Inc()
}

// RecordSourceError counts a source that failed to contribute rows.
func RecordSourceError(source string) {
	sourceErrorCounter.WithLabelValues(source).Inc()
}

// RecordRun updates the run watermark after a completed merge.
func RecordRun(finishedAt time.Time, weightRows, activityRows int) {
	mergeRunsCounter.Inc()
	if !finishedAt.IsZero() {
		lastMergeGauge.Set(float64(finishedAt.Unix()))
	}
	masterRowsGauge.WithLabelValues("weight").Set(float64(weightRows))
	masterRowsGauge.WithLabelValues("activity").Set(float64(activityRows))
}
