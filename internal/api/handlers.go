// Package api exposes the ops HTTP surface of the merge service: trigger a
// run, read the master tables back, health.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gonzaloobispo/Bioengine/internal/config"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/persistence/csvtable"
	"github.com/gonzaloobispo/Bioengine/internal/runlock"
)

// Runner executes one merge run.
type Runner interface {
	Run(ctx context.Context) (*domain.Report, error)
}

// Handler coordinates HTTP requests with the pipeline.
type Handler struct {
	runner Runner
	reader *csvtable.Reader
	cfg    config.Config
}

// NewHandler builds a Handler.
func NewHandler(runner Runner, cfg config.Config) *Handler {
	return &Handler{
		runner: runner,
		reader: csvtable.NewReader(cfg.Pipeline.DecimalConvention),
		cfg:    cfg,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/merge/runs", h.mergeRuns)
	mux.HandleFunc("/v1/tables/weight", h.weightTable)
	mux.HandleFunc("/v1/tables/activity", h.activityTable)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) mergeRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	report, err := h.runner.Run(r.Context())
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			writeError(w, http.StatusConflict, "merge_running", "another merge run holds the lock")
			return
		}
		writeError(w, http.StatusInternalServerError, "merge_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reportResponse(report))
}

func (h *Handler) weightTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	rows, err := h.reader.ReadWeights(h.cfg.WeightMasterPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "table_unreadable", err.Error())
		return
	}
	out := make([]weightRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, weightRow{
			Timestamp:    row.Timestamp.Format("2006-01-02 15:04:05"),
			WeightKg:     row.WeightKg,
			BodyFatPct:   row.BodyFatPct,
			MuscleMassKg: row.MuscleMassKg,
			Source:       row.Source,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out})
}

func (h *Handler) activityTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	rows, err := h.reader.ReadActivities(h.cfg.ActivityMasterPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "table_unreadable", err.Error())
		return
	}
	out := make([]activityRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, activityRow{
			Timestamp:      row.Timestamp.Format("2006-01-02 15:04:05"),
			ActivityType:   row.ActivityType,
			DistanceKm:     row.DistanceKm,
			DurationMin:    row.DurationMin,
			Calories:       row.Calories,
			AvgHeartRate:   row.AvgHeartRate,
			MaxHeartRate:   row.MaxHeartRate,
			ElevationGainM: row.ElevationGainM,
			AvgCadence:     row.AvgCadence,
			Equipment:      row.Equipment,
			EventName:      row.EventName,
			LoadScore:      row.LoadScore,
			Source:         row.Source,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out})
}

type weightRow struct {
	Timestamp    string   `json:"timestamp"`
	WeightKg     float64  `json:"weight_kg"`
	BodyFatPct   *float64 `json:"body_fat_pct,omitempty"`
	MuscleMassKg *float64 `json:"muscle_mass_kg,omitempty"`
	Source       string   `json:"source"`
}

type activityRow struct {
	Timestamp      string   `json:"timestamp"`
	ActivityType   string   `json:"activity_type"`
	DistanceKm     *float64 `json:"distance_km,omitempty"`
	DurationMin    *float64 `json:"duration_min,omitempty"`
	Calories       *float64 `json:"calories,omitempty"`
	AvgHeartRate   *float64 `json:"avg_heart_rate,omitempty"`
	MaxHeartRate   *float64 `json:"max_heart_rate,omitempty"`
	ElevationGainM *float64 `json:"elevation_gain_m,omitempty"`
	AvgCadence     *float64 `json:"avg_cadence,omitempty"`
	Equipment      string   `json:"equipment,omitempty"`
	EventName      string   `json:"event_name,omitempty"`
	LoadScore      *float64 `json:"load_score,omitempty"`
	Source         string   `json:"source"`
}

type runResponse struct {
	RunID        string            `json:"run_id"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	WeightRows   int               `json:"weight_rows"`
	ActivityRows int               `json:"activity_rows"`
	Drops        map[string]int    `json:"drops"`
	SourceRows   map[string]int    `json:"source_rows"`
	SourceErrors map[string]string `json:"source_errors,omitempty"`
	StagesRun    []string          `json:"stages_run"`
}

func reportResponse(report *domain.Report) runResponse {
	drops := make(map[string]int, len(report.Drops))
	for reason, n := range report.Drops {
		drops[string(reason)] = n
	}
	return runResponse{
		RunID:        report.RunID,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
		WeightRows:   report.WeightRows,
		ActivityRows: report.ActivityRows,
		Drops:        drops,
		SourceRows:   report.SourceRows,
		SourceErrors: report.SourceErrors,
		StagesRun:    report.StagesRun,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
