package selection

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gridfit/domain/core"
)

// ============================================================================
// CONFIGURATION GRID
// ============================================================================

// Params is one concrete assignment of hyperparameter values for a model
// family. Tuples are independent of each other; order inside the grid only
// matters for tie-breaking and logging reproducibility.
type Params map[string]float64

// Get returns the value of the parameter by name if present, dflt otherwise.
func (p Params) Get(name string, dflt float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return dflt
}

// Clone returns an independent copy of the params.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String renders the params in sorted key order for stable logging.
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}

// Config is one candidate entry of a configuration grid.
type Config struct {
	Index  int    `json:"index"`  // position in grid order, used for tie-breaking
	Family string `json:"family"` // model family name
	Params Params `json:"params"`
}

// Grid is an ordered, enumerable set of candidate configurations.
type Grid []Config

// ExpandGrid builds the cross product of per-parameter value lists for a model
// family. Parameter names are iterated in sorted order so two identical value
// maps always expand to the same grid.
func ExpandGrid(family string, space map[string][]float64) Grid {
	names := make([]string, 0, len(space))
	for name := range space {
		names = append(names, name)
	}
	sort.Strings(names)

	grid := Grid{{Family: family, Params: Params{}}}
	for _, name := range names {
		values := space[name]
		next := make(Grid, 0, len(grid)*len(values))
		for _, cfg := range grid {
			for _, v := range values {
				params := cfg.Params.Clone()
				params[name] = v
				next = append(next, Config{Family: family, Params: params})
			}
		}
		grid = next
	}
	for i := range grid {
		grid[i].Index = i
	}
	return grid
}

// Hash returns a deterministic fingerprint of the grid.
func (g Grid) Hash() core.GridHash {
	configs := make([]map[string]float64, len(g))
	for i, cfg := range g {
		configs[i] = cfg.Params
	}
	return core.ComputeGridHash(configs)
}

// ============================================================================
// METRICS
// ============================================================================

// Metric identifies the scoring metric used for configuration comparison.
type Metric string

const (
	MetricAUC      Metric = "auc"
	MetricAccuracy Metric = "accuracy"
	MetricKappa    Metric = "kappa"
)

// ParseMetric validates a metric name. An unknown metric is a fatal
// precondition violation, caught before any fitting starts.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricAUC:
		return MetricAUC, nil
	case MetricAccuracy:
		return MetricAccuracy, nil
	case MetricKappa:
		return MetricKappa, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// ============================================================================
// SCORE RECORDS
// ============================================================================

// ScoreRecord is one metric value for a (configuration, repeat, fold) triple.
// A failed fit is recorded with Err set and no score; it is excluded from the
// configuration's aggregate but does not abort the run.
type ScoreRecord struct {
	ConfigIndex int            `json:"config_index"`
	Repeat      int            `json:"repeat"`
	Fold        int            `json:"fold"`
	Score       float64        `json:"score"`
	Err         string         `json:"err,omitempty"`
	ScoredAt    core.Timestamp `json:"scored_at"`
}

// Failed reports whether the record represents a fit failure.
func (r ScoreRecord) Failed() bool { return r.Err != "" }

// scoreRecordJSON carries the score as a pointer so a failed record's NaN,
// which encoding/json cannot represent, round-trips as an absent field.
type scoreRecordJSON struct {
	ConfigIndex int            `json:"config_index"`
	Repeat      int            `json:"repeat"`
	Fold        int            `json:"fold"`
	Score       *float64       `json:"score,omitempty"`
	Err         string         `json:"err,omitempty"`
	ScoredAt    core.Timestamp `json:"scored_at"`
}

func (r ScoreRecord) MarshalJSON() ([]byte, error) {
	out := scoreRecordJSON{
		ConfigIndex: r.ConfigIndex,
		Repeat:      r.Repeat,
		Fold:        r.Fold,
		Err:         r.Err,
		ScoredAt:    r.ScoredAt,
	}
	if !math.IsNaN(r.Score) && !math.IsInf(r.Score, 0) {
		score := r.Score
		out.Score = &score
	}
	return json.Marshal(out)
}

func (r *ScoreRecord) UnmarshalJSON(data []byte) error {
	var in scoreRecordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.ConfigIndex = in.ConfigIndex
	r.Repeat = in.Repeat
	r.Fold = in.Fold
	r.Err = in.Err
	r.ScoredAt = in.ScoredAt
	if in.Score != nil {
		r.Score = *in.Score
	} else {
		r.Score = math.NaN()
	}
	return nil
}

// NewScoreRecord creates a successful score record with validation.
func NewScoreRecord(configIndex, repeat, fold int, score float64) (ScoreRecord, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return ScoreRecord{}, fmt.Errorf("score must be finite, got %f", score)
	}
	return ScoreRecord{
		ConfigIndex: configIndex,
		Repeat:      repeat,
		Fold:        fold,
		Score:       score,
		ScoredAt:    core.Now(),
	}, nil
}

// NewFailedScoreRecord creates a record for a fit that could not complete.
func NewFailedScoreRecord(configIndex, repeat, fold int, err error) ScoreRecord {
	return ScoreRecord{
		ConfigIndex: configIndex,
		Repeat:      repeat,
		Fold:        fold,
		Score:       math.NaN(),
		Err:         err.Error(),
		ScoredAt:    core.Now(),
	}
}

// ConfigSummary aggregates a configuration's per-fold scores.
type ConfigSummary struct {
	Config    Config  `json:"config"`
	MeanScore float64 `json:"mean_score"`
	StdErr    float64 `json:"std_err"`
	Completed int     `json:"completed"` // successful fold fits
	Failed    int     `json:"failed"`    // recorded fit failures
}

// Eligible reports whether the configuration may participate in selection.
// A configuration with no successful fold fit is never selected.
func (s ConfigSummary) Eligible() bool { return s.Completed > 0 }

// ============================================================================
// HOLDOUT EVALUATION
// ============================================================================

// ConfusionMatrix holds predicted-vs-actual counts on an evaluation set.
type ConfusionMatrix struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	TrueNegative  int `json:"true_negative"`
	FalseNegative int `json:"false_negative"`
}

// Total returns the number of evaluated observations.
func (m ConfusionMatrix) Total() int {
	return m.TruePositive + m.FalsePositive + m.TrueNegative + m.FalseNegative
}

// Accuracy returns the fraction of correct predictions.
func (m ConfusionMatrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	return float64(m.TruePositive+m.TrueNegative) / float64(total)
}

// ROCPoint is one operating point of an ROC curve.
type ROCPoint struct {
	FPR       float64 `json:"fpr"`
	TPR       float64 `json:"tpr"`
	Threshold float64 `json:"threshold"`
}

// ROCCurve is the ordered sequence of operating points obtained by sweeping
// the decision threshold, with its trapezoidal area as a scalar summary.
// Points are ordered by non-decreasing FPR from (0,0) to (1,1).
type ROCCurve struct {
	Points []ROCPoint `json:"points"`
	AUC    float64    `json:"auc"`
}

// HoldoutEvaluation is the single final evaluation of the refit winner on the
// evaluation partition.
type HoldoutEvaluation struct {
	Size      int             `json:"size"`
	Confusion ConfusionMatrix `json:"confusion"`
	ROC       ROCCurve        `json:"roc"`
	Accuracy  float64         `json:"accuracy"`
	Kappa     float64         `json:"kappa"`
}

// ============================================================================
// RUN ARTIFACTS
// ============================================================================

// RunManifest captures the complete specification and outcome counts of one
// selection run, with enough determinism metadata to reproduce it.
type RunManifest struct {
	RunID        core.RunID       `json:"run_id"`
	DatasetName  string           `json:"dataset_name"`
	DatasetHash  core.DatasetHash `json:"dataset_hash"`
	GridHash     core.GridHash    `json:"grid_hash"`
	FoldHash     core.FoldHash    `json:"fold_hash"`
	Seed         int64            `json:"seed"`
	Metric       Metric           `json:"metric"`
	GridSize     int              `json:"grid_size"`
	Folds        int              `json:"folds"`
	Repeats      int              `json:"repeats"`
	TrainRows    int              `json:"train_rows"`
	HoldoutRows  int              `json:"holdout_rows"`
	ScoreRecords int              `json:"score_records"`
	FailedFits   int              `json:"failed_fits"`
	RuntimeMs    int64            `json:"runtime_ms"`
	CreatedAt    core.Timestamp   `json:"created_at"`
}

// Report is the final output of a selection run: the winning configuration,
// the ranked score table, and the holdout evaluation of the refit model.
type Report struct {
	Manifest  RunManifest       `json:"manifest"`
	Selected  Config            `json:"selected"`
	Summaries []ConfigSummary   `json:"summaries"` // grid order
	Holdout   HoldoutEvaluation `json:"holdout"`
	Scores    []ScoreRecord     `json:"scores,omitempty"`
}
