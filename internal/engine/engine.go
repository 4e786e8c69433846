package engine

import (
	"context"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"gridfit/domain/core"
	"gridfit/domain/dataset"
	"gridfit/domain/selection"
	"gridfit/internal"
	"gridfit/internal/errors"
	"gridfit/internal/metrics"
	"gridfit/internal/preprocess"
	"gridfit/internal/resample"
	"gridfit/model"
)

// Spec describes one model-selection run: the candidate grid, the scoring
// metric, the partition ratio, the resampling scheme and the seed that makes
// the whole run reproducible.
type Spec struct {
	Grid       selection.Grid
	Metric     selection.Metric
	TrainRatio float64
	Folds      int
	Repeats    int
	Seed       int64
	Workers    int // fixed worker-pool size; 0 means number of CPUs
}

// Engine runs the model-selection workflow: a stratified train/holdout split,
// one shared fold assignment, independent fold fits per configuration on a
// bounded worker pool, aggregate scoring, selection, a refit on the full
// training partition and a single holdout evaluation.
type Engine struct {
	registry *model.Registry
	log      *internal.Logger
}

// New creates an engine over a model family registry.
func New(registry *model.Registry, logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{registry: registry, log: logger}
}

// Run executes the workflow. Preconditions (empty grid, unknown metric or
// family, bad split) abort before any fitting. A configuration that fails to
// fit on a fold is recorded as a missing score and excluded from that
// configuration's aggregate; only a grid where nothing fits at all fails the
// run. Context cancellation propagates unmodified.
//
// The run mutates no external state: its only outputs are the score records,
// the fitted winner and the report.
func (e *Engine) Run(ctx context.Context, d *dataset.Dataset, spec Spec) (*selection.Report, model.Classifier, error) {
	started := time.Now()

	if err := e.validate(d, spec); err != nil {
		return nil, nil, err
	}

	// Step 1: stratified split, seeded.
	train, holdout, stats, err := resample.StratifiedSplit(d, spec.TrainRatio, spec.Seed)
	if err != nil {
		return nil, nil, err
	}
	e.log.Info("[Engine] split %d rows into train=%d holdout=%d (positive rate %.3f)",
		stats.TotalRows, stats.TrainRows, stats.HoldoutRows, stats.PositiveRate)

	// Step 2: folds generated once and shared read-only by every
	// configuration. Reusing the same assignment across the grid is what
	// makes the cross-configuration comparison valid.
	folds, err := resample.RepeatedStratifiedKFold(train, spec.Folds, spec.Repeats, spec.Seed)
	if err != nil {
		return nil, nil, err
	}

	// Step 3: independent (configuration, repeat, fold) fits.
	records, err := e.scoreGrid(ctx, train, folds, spec)
	if err != nil {
		return nil, nil, err
	}

	// Step 3b + 4: aggregate and select.
	summaries := metrics.Summarize(spec.Grid, records)
	selected, err := selection.SelectBest(summaries, e.simplicity)
	if err != nil {
		return nil, nil, errors.Wrap(err, "selection failed")
	}
	e.log.Info("[Engine] selected config #%d (%s %s)", selected.Index, selected.Family, selected.Params)

	// Step 5: refit the winner on the entire training partition.
	final, finalScaler, err := e.refit(train, selected)
	if err != nil {
		return nil, nil, err
	}

	// Step 6: single evaluation on the holdout partition.
	preds := predictView(final, finalScaler, holdout)
	evaluation, err := metrics.Evaluate(preds)
	if err != nil {
		return nil, nil, errors.Wrap(err, "holdout evaluation failed")
	}

	failed := 0
	for _, rec := range records {
		if rec.Failed() {
			failed++
		}
	}

	report := &selection.Report{
		Manifest: selection.RunManifest{
			RunID:        core.RunID(core.NewID()),
			DatasetName:  d.Name,
			DatasetHash:  d.Fingerprint(),
			GridHash:     spec.Grid.Hash(),
			FoldHash:     folds.Hash(),
			Seed:         spec.Seed,
			Metric:       spec.Metric,
			GridSize:     len(spec.Grid),
			Folds:        spec.Folds,
			Repeats:      spec.Repeats,
			TrainRows:    stats.TrainRows,
			HoldoutRows:  stats.HoldoutRows,
			ScoreRecords: len(records),
			FailedFits:   failed,
			RuntimeMs:    time.Since(started).Milliseconds(),
			CreatedAt:    core.Now(),
		},
		Selected:  selected,
		Summaries: summaries,
		Holdout:   evaluation,
		Scores:    records,
	}
	return report, final, nil
}

// validate checks fatal preconditions before any fitting starts.
func (e *Engine) validate(d *dataset.Dataset, spec Spec) error {
	if len(spec.Grid) == 0 {
		return errors.Precondition("configuration grid is empty")
	}
	if _, err := selection.ParseMetric(string(spec.Metric)); err != nil {
		return errors.Wrap(err, "invalid metric")
	}
	for _, cfg := range spec.Grid {
		if _, err := e.registry.Lookup(cfg.Family); err != nil {
			return errors.Wrap(err, "invalid grid")
		}
	}
	if classes := d.Classes(); len(classes) != 2 {
		return errors.Preconditionf("outcome must have exactly 2 classes, got %d", len(classes))
	}
	return nil
}

// scoreGrid fans every (configuration, repeat, fold) fit out over a
// fixed-size worker pool. Each job only reads the shared fold assignment and
// emits its own score record. Records arrive in worker-completion order and
// are sorted back into (configuration, repeat, fold) order, so the table is
// identical regardless of worker interleaving.
func (e *Engine) scoreGrid(ctx context.Context, train dataset.View, folds *resample.FoldAssignment, spec Spec) ([]selection.ScoreRecord, error) {
	workers := spec.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	total := len(spec.Grid) * spec.Repeats * spec.Folds
	e.log.Debug("[Engine] scoring %d configs x %d repeats x %d folds = %d fits on %d workers",
		len(spec.Grid), spec.Repeats, spec.Folds, total, workers)

	sem := semaphore.NewWeighted(int64(workers))
	results := make(chan selection.ScoreRecord, total)
	g, gctx := errgroup.WithContext(ctx)

	for _, cfg := range spec.Grid {
		family, _ := e.registry.Lookup(cfg.Family) // validated up front
		for rep := 0; rep < spec.Repeats; rep++ {
			for fold := 0; fold < spec.Folds; fold++ {
				g.Go(func() error {
					if err := sem.Acquire(gctx, 1); err != nil {
						return err
					}
					defer sem.Release(1)
					results <- e.scoreFold(cfg, family, train, folds, rep, fold, spec.Metric)
					return nil
				})
			}
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)

	records := make([]selection.ScoreRecord, 0, total)
	for rec := range results {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.ConfigIndex != b.ConfigIndex {
			return a.ConfigIndex < b.ConfigIndex
		}
		if a.Repeat != b.Repeat {
			return a.Repeat < b.Repeat
		}
		return a.Fold < b.Fold
	})
	return records, nil
}

// scoreFold fits one configuration on one fold's held-in rows and scores it
// against the held-out rows. Any failure along the way becomes a failed score
// record, never an error: a degenerate configuration must not sink the run.
func (e *Engine) scoreFold(cfg selection.Config, family model.Family, train dataset.View, folds *resample.FoldAssignment, rep, fold int, metric selection.Metric) selection.ScoreRecord {
	heldIn := train.Select(folds.HeldIn(rep, fold))
	heldOut := train.Select(folds.HeldOut(rep, fold))

	clf, scaler, err := fitOn(family, cfg.Params, heldIn)
	if err != nil {
		e.log.Debug("[Engine] config #%d repeat %d fold %d failed: %v", cfg.Index, rep, fold, err)
		return selection.NewFailedScoreRecord(cfg.Index, rep, fold, err)
	}

	preds := predictView(clf, scaler, heldOut)
	score, err := metrics.Score(metric, preds)
	if err != nil {
		return selection.NewFailedScoreRecord(cfg.Index, rep, fold, err)
	}

	rec, err := selection.NewScoreRecord(cfg.Index, rep, fold, score)
	if err != nil {
		return selection.NewFailedScoreRecord(cfg.Index, rep, fold, err)
	}
	return rec
}

// fitOn trains a fresh classifier on the view. Preprocessing statistics are
// estimated on these rows only, so a held-out fold never leaks into the fit.
func fitOn(family model.Family, params selection.Params, v dataset.View) (model.Classifier, *preprocess.Scaler, error) {
	clf, err := family.New(params)
	if err != nil {
		return nil, nil, err
	}

	x, y := materialize(v)
	var scaler *preprocess.Scaler
	if family.NeedsScaling() {
		scaler = preprocess.Fit(x)
		scaler.Transform(x)
	}
	if err := clf.Fit(x, y); err != nil {
		return nil, nil, err
	}
	return clf, scaler, nil
}

// predictView scores every row of the view with the fitted classifier,
// applying the held-in scaler when one was fit.
func predictView(clf model.Classifier, scaler *preprocess.Scaler, v dataset.View) []metrics.Prediction {
	preds := make([]metrics.Prediction, v.Len())
	var row []float64
	for i := 0; i < v.Len(); i++ {
		row = v.Row(i, row)
		if scaler != nil {
			scaler.TransformRow(row)
		}
		preds[i] = metrics.Prediction{Prob: clf.Prob(row), Actual: v.IsPositive(i)}
	}
	return preds
}

// refit trains the selected configuration on the full training partition,
// returning the classifier and the scaler fit on the same rows. The winner
// already fit on every fold, so a failure here is fatal. The scaler never
// sees holdout rows.
func (e *Engine) refit(train dataset.View, selected selection.Config) (model.Classifier, *preprocess.Scaler, error) {
	family, err := e.registry.Lookup(selected.Family)
	if err != nil {
		return nil, nil, err
	}
	clf, scaler, err := fitOn(family, selected.Params, train)
	if err != nil {
		return nil, nil, errors.Wrap(err, "final refit on full training partition failed")
	}
	return clf, scaler, nil
}

// simplicity adapts the winning family's complexity ranking for tie-breaking.
func (e *Engine) simplicity(cfg selection.Config) float64 {
	family, err := e.registry.Lookup(cfg.Family)
	if err != nil {
		return 0
	}
	return family.Simplicity(cfg.Params)
}

// materialize copies a view into a row-major matrix and label vector, so fits
// never touch the shared dataset storage.
func materialize(v dataset.View) ([][]float64, []bool) {
	x := make([][]float64, v.Len())
	y := make([]bool, v.Len())
	for i := 0; i < v.Len(); i++ {
		x[i] = v.Row(i, nil)
		y[i] = v.IsPositive(i)
	}
	return x, y
}
