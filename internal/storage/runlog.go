package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/guttosm/fxpulse/internal/domain/models"
)

// RunLog persists run outcomes to the run_log table.
type RunLog interface {
	Record(ctx context.Context, res models.RunResult) error
	Recent(ctx context.Context, limit int) ([]models.RunResult, error)
}

type runLog struct {
	db *sql.DB
}

// NewRunLog returns a RunLog backed by db.
func NewRunLog(db *sql.DB) RunLog {
	return &runLog{db: db}
}

// Record upserts one run by run_id, so a retried write is harmless.
func (r *runLog) Record(ctx context.Context, res models.RunResult) error {
	fs := res.Failures
	if fs == nil {
		fs = []models.InstrumentFailure{}
	}
	failures, err := json.Marshal(fs)
	if err != nil {
		return fmt.Errorf("encode failures: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO run_log (
			run_id, started_at, finished_at, state, attempted, extracted,
			persisted, dataset_rows, object_id, failures, error
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (run_id)
		DO UPDATE SET finished_at = EXCLUDED.finished_at,
					  state = EXCLUDED.state,
					  attempted = EXCLUDED.attempted,
					  extracted = EXCLUDED.extracted,
					  persisted = EXCLUDED.persisted,
					  dataset_rows = EXCLUDED.dataset_rows,
					  object_id = EXCLUDED.object_id,
					  failures = EXCLUDED.failures,
					  error = EXCLUDED.error
	`,
		res.RunID, res.StartedAt, res.FinishedAt, string(res.State), res.Attempted, res.Extracted,
		res.Persisted, res.DatasetRows, res.ObjectID, string(failures), res.Error,
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (r *runLog) Recent(ctx context.Context, limit int) ([]models.RunResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, state, attempted, extracted,
			   persisted, dataset_rows, object_id, failures, error
		FROM run_log
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RunResult
	for rows.Next() {
		var (
			res      models.RunResult
			state    string
			failures []byte
		)
		if err := rows.Scan(
			&res.RunID, &res.StartedAt, &res.FinishedAt, &state, &res.Attempted, &res.Extracted,
			&res.Persisted, &res.DatasetRows, &res.ObjectID, &failures, &res.Error,
		); err != nil {
			return nil, err
		}
		res.State = models.RunState(state)
		if len(failures) > 0 {
			if err := json.Unmarshal(failures, &res.Failures); err != nil {
				return nil, fmt.Errorf("decode failures for %s: %w", res.RunID, err)
			}
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
