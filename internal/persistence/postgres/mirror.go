// Package postgres mirrors the master tables into Postgres for consumers
// that prefer SQL over the CSV artifacts. The mirror is replaced wholesale
// on every run, matching the full-rewrite semantics of the file writer.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gonzaloobispo/Bioengine/internal/domain"
)

// Mirror replaces the master tables inside Postgres.
type Mirror struct {
	pool *pgxpool.Pool
}

// NewMirror constructs a Mirror.
func NewMirror(pool *pgxpool.Pool) *Mirror {
	return &Mirror{pool: pool}
}

// Replace swaps both master tables in a single transaction, so readers see
// either the previous run or the new one, never a mix.
func (m *Mirror) Replace(ctx context.Context, runID string, weights []domain.WeightRecord, activities []domain.ActivityRecord) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE weight_master, activity_master`); err != nil {
		return fmt.Errorf("truncate masters: %w", err)
	}

	batch := &pgx.Batch{}
	const insertWeight = `INSERT INTO weight_master (run_id, measured_at, weight_kg, body_fat_pct, muscle_mass_kg, source)
        VALUES ($1,$2,$3,$4,$5,$6)`
	for _, row := range weights {
		batch.Queue(insertWeight, runID, row.Timestamp, row.WeightKg, row.BodyFatPct, row.MuscleMassKg, row.Source)
	}

	const insertActivity = `INSERT INTO activity_master (run_id, started_at, activity_type, distance_km, duration_min, calories, avg_heart_rate, max_heart_rate, elevation_gain_m, avg_cadence, equipment, event_name, load_score, source)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	for _, row := range activities {
		batch.Queue(insertActivity, runID, row.Timestamp, row.ActivityType,
			row.DistanceKm, row.DurationMin, row.Calories,
			row.AvgHeartRate, row.MaxHeartRate, row.ElevationGainM, row.AvgCadence,
			row.Equipment, row.EventName, row.LoadScore, row.Source)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert master row: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CountRows returns the row counts of both mirrored tables.
func (m *Mirror) CountRows(ctx context.Context) (weights int, activities int, err error) {
	if err = m.pool.QueryRow(ctx, `SELECT count(*) FROM weight_master`).Scan(&weights); err != nil {
		return 0, 0, err
	}
	if err = m.pool.QueryRow(ctx, `SELECT count(*) FROM activity_master`).Scan(&activities); err != nil {
		return 0, 0, err
	}
	return weights, activities, nil
}
