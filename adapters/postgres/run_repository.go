// Package postgres archives completed simulation runs. The archive never
// feeds back into a simulation; runs stay self-contained.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"dendrosim/domain/core"
	sim "dendrosim/domain/simulation"
	"dendrosim/internal/errors"
	"dendrosim/ports"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) *RunRepositoryImpl {
	return &RunRepositoryImpl{db: db}
}

var _ ports.RunRepository = (*RunRepositoryImpl)(nil)

// EnsureSchema creates the archive tables if they do not exist.
func (r *RunRepositoryImpl) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS simulation_runs (
			id UUID PRIMARY KEY,
			params JSONB NOT NULL,
			population_coherence DOUBLE PRECISION NOT NULL,
			population_correlation DOUBLE PRECISION NOT NULL,
			critical_correlation DOUBLE PRECISION NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS simulation_results (
			run_id UUID NOT NULL REFERENCES simulation_runs(id) ON DELETE CASCADE,
			row_index INT NOT NULL,
			specimen_count INT NOT NULL,
			noise_level DOUBLE PRECISION NOT NULL,
			correlation DOUBLE PRECISION NOT NULL,
			coherence DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, row_index)
		);`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(errors.DatabaseError(err.Error()), "failed to create run archive schema")
	}
	return nil
}

// SaveRun stores a run and its full results table in one transaction.
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run *sim.Run) error {
	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return errors.Wrap(err, "failed to encode run parameters")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO simulation_runs (id, params, population_coherence, population_correlation, critical_correlation, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID.String(), paramsJSON,
		run.Summary.PopulationCoherence, run.Summary.PopulationCorrelation, run.Summary.CriticalCorrelation,
		run.StartedAt, run.FinishedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert run")
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO simulation_results (run_id, row_index, specimen_count, noise_level, correlation, coherence)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare results insert")
	}
	defer stmt.Close()

	for i, row := range run.Rows {
		if _, err := stmt.ExecContext(ctx, run.ID.String(), i, row.SpecimenCount, row.NoiseLevel, row.Correlation, row.Coherence); err != nil {
			return errors.Wrapf(err, "failed to insert result row %d", i)
		}
	}

	return tx.Commit()
}

// runRecord is the simulation_runs row shape.
type runRecord struct {
	ID                    string    `db:"id"`
	Params                []byte    `db:"params"`
	PopulationCoherence   float64   `db:"population_coherence"`
	PopulationCorrelation float64   `db:"population_correlation"`
	CriticalCorrelation   float64   `db:"critical_correlation"`
	StartedAt             time.Time `db:"started_at"`
	FinishedAt            time.Time `db:"finished_at"`
	CreatedAt             time.Time `db:"created_at"`
}

func (rec *runRecord) toRun() (*sim.Run, error) {
	var params sim.Params
	if err := json.Unmarshal(rec.Params, &params); err != nil {
		return nil, errors.Wrap(err, "failed to decode run parameters")
	}
	return &sim.Run{
		ID:     core.RunID(rec.ID),
		Params: params,
		Summary: sim.Summary{
			PopulationCoherence:   rec.PopulationCoherence,
			PopulationCorrelation: rec.PopulationCorrelation,
			CriticalCorrelation:   rec.CriticalCorrelation,
		},
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}, nil
}

// GetRun retrieves a run with its full results table.
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*sim.Run, error) {
	var rec runRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, params, population_coherence, population_correlation, critical_correlation, started_at, finished_at, created_at
		FROM simulation_runs
		WHERE id = $1
	`, id.String())
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("run " + id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load run")
	}

	run, err := rec.toRun()
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &run.Rows, `
		SELECT specimen_count, noise_level, correlation, coherence
		FROM simulation_results
		WHERE run_id = $1
		ORDER BY row_index
	`, id.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load result rows")
	}
	return run, nil
}

// ListRuns returns recent runs without their result rows, newest first.
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*sim.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []runRecord
	err := r.db.SelectContext(ctx, &recs, `
		SELECT id, params, population_coherence, population_correlation, critical_correlation, started_at, finished_at, created_at
		FROM simulation_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}

	runs := make([]*sim.Run, 0, len(recs))
	for i := range recs {
		run, err := recs[i].toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
