package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"adscope/domain/analysis"
	"adscope/domain/core"
	"adscope/ports"
)

// runRepository persists analysis runs as JSONB documents. Run payloads
// are read back whole, so a document column beats a normalized schema
// here.
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a run repository over an open connection.
func NewRunRepository(db *sqlx.DB) ports.RunStore {
	return &runRepository{db: db}
}

// Connect opens and pings a postgres connection.
func Connect(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	id           TEXT PRIMARY KEY,
	query        TEXT NOT NULL,
	state        TEXT NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	payload      JSONB NOT NULL,
	trace        JSONB NOT NULL DEFAULT '[]'::jsonb
);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_started_at ON analysis_runs (started_at DESC);
`

// EnsureSchema creates the runs table if it does not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure runs schema: %w", err)
	}
	return nil
}

// SaveRun upserts the run document and its trace.
func (r *runRepository) SaveRun(ctx context.Context, run *analysis.Context) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	trace, err := json.Marshal(run.Trace.Export())
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	query := `INSERT INTO analysis_runs (id, query, state, started_at, completed_at, payload, trace)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			completed_at = EXCLUDED.completed_at,
			payload = EXCLUDED.payload,
			trace = EXCLUDED.trace`

	var completedAt any
	if !run.CompletedAt.IsZero() {
		completedAt = run.CompletedAt.Time()
	}

	_, err = r.db.ExecContext(ctx, query,
		run.RunID.String(), run.Query, string(run.State), run.StartedAt.Time(), completedAt, payload, trace,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun loads one run with its trace rebuilt.
func (r *runRepository) GetRun(ctx context.Context, id core.RunID) (*analysis.Context, error) {
	query := `SELECT payload, trace FROM analysis_runs WHERE id = $1`

	var payload, trace []byte
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&payload, &trace)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return decodeRun(payload, trace)
}

// ListRuns returns the most recent runs, newest first.
func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]*analysis.Context, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT payload, trace FROM analysis_runs ORDER BY started_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*analysis.Context
	for rows.Next() {
		var payload, trace []byte
		if err := rows.Scan(&payload, &trace); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run, err := decodeRun(payload, trace)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func decodeRun(payload, trace []byte) (*analysis.Context, error) {
	var run analysis.Context
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	if run.Validations == nil {
		run.Validations = make(map[core.HypothesisID]analysis.ValidationResult)
	}

	var records []analysis.AttemptRecord
	if len(trace) > 0 {
		if err := json.Unmarshal(trace, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace: %w", err)
		}
	}
	run.Trace = analysis.NewTraceRecorder()
	for _, rec := range records {
		run.Trace.Record(rec)
	}
	return &run, nil
}
