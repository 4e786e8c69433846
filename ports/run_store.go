package ports

import (
	"context"

	"gridfit/domain/core"
	"gridfit/domain/selection"
)

// RunStore persists completed selection runs. The engine itself mutates no
// external state; persistence is an adapter the caller wires in.
type RunStore interface {
	// SaveReport stores a run's report together with its full score table.
	SaveReport(ctx context.Context, report *selection.Report, records []selection.ScoreRecord) error

	// GetReport retrieves a stored report by run ID.
	GetReport(ctx context.Context, runID core.RunID) (*selection.Report, error)

	// ListRuns returns stored run manifests, newest first.
	ListRuns(ctx context.Context) ([]selection.RunManifest, error)

	// GetScores returns the score table of a run.
	GetScores(ctx context.Context, runID core.RunID) ([]selection.ScoreRecord, error)
}
