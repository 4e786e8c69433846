package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"gridfit/domain/core"
	"gridfit/domain/selection"
	"gridfit/ports"
)

// RunRepository implements ports.RunStore on PostgreSQL.
type RunRepository struct {
	db *sqlx.DB
}

// The concrete type adds Init on top of the port.
var _ ports.RunStore = (*RunRepository)(nil)

// NewRunRepository creates a new run store backed by the given connection.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Schema bootstrap; idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS selection_runs (
	run_id        TEXT PRIMARY KEY,
	dataset_name  TEXT NOT NULL,
	dataset_hash  TEXT NOT NULL,
	grid_hash     TEXT NOT NULL,
	fold_hash     TEXT NOT NULL,
	seed          BIGINT NOT NULL,
	metric        TEXT NOT NULL,
	grid_size     INT NOT NULL,
	folds         INT NOT NULL,
	repeats       INT NOT NULL,
	train_rows    INT NOT NULL,
	holdout_rows  INT NOT NULL,
	score_records INT NOT NULL,
	failed_fits   INT NOT NULL,
	runtime_ms    BIGINT NOT NULL,
	report        JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS score_records (
	run_id       TEXT NOT NULL REFERENCES selection_runs(run_id) ON DELETE CASCADE,
	config_index INT NOT NULL,
	repeat       INT NOT NULL,
	fold         INT NOT NULL,
	score        DOUBLE PRECISION,
	err          TEXT NOT NULL DEFAULT '',
	scored_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, config_index, repeat, fold)
);
`

// Init creates the tables if they do not exist.
func (r *RunRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize run store schema: %w", err)
	}
	return nil
}

// SaveReport stores the report and its score table in one transaction.
func (r *RunRepository) SaveReport(ctx context.Context, report *selection.Report, records []selection.ScoreRecord) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	m := report.Manifest
	_, err = tx.ExecContext(ctx, `INSERT INTO selection_runs (
		run_id, dataset_name, dataset_hash, grid_hash, fold_hash, seed, metric,
		grid_size, folds, repeats, train_rows, holdout_rows, score_records,
		failed_fits, runtime_ms, report, created_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		m.RunID, m.DatasetName, m.DatasetHash, m.GridHash, m.FoldHash, m.Seed, m.Metric,
		m.GridSize, m.Folds, m.Repeats, m.TrainRows, m.HoldoutRows, m.ScoreRecords,
		m.FailedFits, m.RuntimeMs, reportJSON, m.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, rec := range records {
		var score sql.NullFloat64
		if !rec.Failed() {
			score = sql.NullFloat64{Float64: rec.Score, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO score_records (
			run_id, config_index, repeat, fold, score, err, scored_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			m.RunID, rec.ConfigIndex, rec.Repeat, rec.Fold, score, rec.Err, rec.ScoredAt.Time(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert score record: %w", err)
		}
	}

	return tx.Commit()
}

// GetReport retrieves a stored report by run ID.
func (r *RunRepository) GetReport(ctx context.Context, runID core.RunID) (*selection.Report, error) {
	var reportJSON []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT report FROM selection_runs WHERE run_id = $1`, runID).Scan(&reportJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report selection.Report
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// ListRuns returns stored manifests, newest first.
func (r *RunRepository) ListRuns(ctx context.Context) ([]selection.RunManifest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		run_id, dataset_name, dataset_hash, grid_hash, fold_hash, seed, metric,
		grid_size, folds, repeats, train_rows, holdout_rows, score_records,
		failed_fits, runtime_ms, created_at
	FROM selection_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var manifests []selection.RunManifest
	for rows.Next() {
		var m selection.RunManifest
		var createdAt sql.NullTime
		err := rows.Scan(
			&m.RunID, &m.DatasetName, &m.DatasetHash, &m.GridHash, &m.FoldHash, &m.Seed, &m.Metric,
			&m.GridSize, &m.Folds, &m.Repeats, &m.TrainRows, &m.HoldoutRows, &m.ScoreRecords,
			&m.FailedFits, &m.RuntimeMs, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if createdAt.Valid {
			m.CreatedAt = core.NewTimestamp(createdAt.Time)
		}
		manifests = append(manifests, m)
	}
	return manifests, rows.Err()
}

// GetScores returns the score table of a run in (config, repeat, fold) order.
func (r *RunRepository) GetScores(ctx context.Context, runID core.RunID) ([]selection.ScoreRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		config_index, repeat, fold, score, err, scored_at
	FROM score_records WHERE run_id = $1
	ORDER BY config_index, repeat, fold`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list score records: %w", err)
	}
	defer rows.Close()

	var records []selection.ScoreRecord
	for rows.Next() {
		var rec selection.ScoreRecord
		var score sql.NullFloat64
		var scoredAt sql.NullTime
		if err := rows.Scan(&rec.ConfigIndex, &rec.Repeat, &rec.Fold, &score, &rec.Err, &scoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		if score.Valid {
			rec.Score = score.Float64
		} else {
			rec.Score = math.NaN()
		}
		if scoredAt.Valid {
			rec.ScoredAt = core.NewTimestamp(scoredAt.Time)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
