package resample

import (
	"math"
	"math/rand"
	"sort"

	"gridfit/domain/dataset"
	"gridfit/internal/errors"
)

// PartitionStats provides metadata about a train/holdout split.
type PartitionStats struct {
	TotalRows    int     `json:"total_rows"`
	TrainRows    int     `json:"train_rows"`
	HoldoutRows  int     `json:"holdout_rows"`
	TrainRatio   float64 `json:"train_ratio"`
	PositiveRate float64 `json:"positive_rate"`
	Seed         int64   `json:"seed"`
}

// StratifiedSplit assigns every row of the dataset to exactly one of
// {training, holdout}, preserving outcome class proportions within each
// partition. The split is keyed on the outcome label and seeded, so the same
// seed always yields the same assignment. It is created once per run and the
// returned views are immutable afterward.
func StratifiedSplit(d *dataset.Dataset, ratio float64, seed int64) (train, holdout dataset.View, stats PartitionStats, err error) {
	if ratio <= 0 || ratio >= 1 {
		err = errors.Preconditionf("train ratio must be in (0,1), got %g", ratio)
		return
	}
	if d.NumRows() < 10 {
		err = errors.Preconditionf("insufficient data for partitioning: need at least 10 rows, got %d", d.NumRows())
		return
	}

	strata := strataIndices(d)
	if len(strataKeys(strata)) < 2 {
		err = errors.Precondition("dataset has a single outcome class; a two-class outcome is required")
		return
	}

	rng := rand.New(rand.NewSource(seed))

	var trainRows, holdoutRows []int
	for _, label := range strataKeys(strata) {
		rows := strata[label]
		shuffled := make([]int, len(rows))
		copy(shuffled, rows)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		n := int(math.Round(float64(len(shuffled)) * ratio))
		if n < 1 {
			n = 1
		}
		if n >= len(shuffled) {
			n = len(shuffled) - 1
		}
		trainRows = append(trainRows, shuffled[:n]...)
		holdoutRows = append(holdoutRows, shuffled[n:]...)
	}

	// Stable row order inside each partition so downstream fold generation
	// only depends on the seed, not on stratum iteration.
	sort.Ints(trainRows)
	sort.Ints(holdoutRows)

	if len(trainRows) == 0 || len(holdoutRows) == 0 {
		err = errors.Precondition("stratified split produced an empty partition")
		return
	}

	train = dataset.NewView(d, trainRows)
	holdout = dataset.NewView(d, holdoutRows)
	if len(train.ClassCounts()) < 2 {
		err = errors.Precondition("training partition contains a single outcome class")
		return
	}

	stats = PartitionStats{
		TotalRows:    d.NumRows(),
		TrainRows:    len(trainRows),
		HoldoutRows:  len(holdoutRows),
		TrainRatio:   float64(len(trainRows)) / float64(d.NumRows()),
		PositiveRate: train.PositiveRate(),
		Seed:         seed,
	}
	return
}

// strataIndices groups dataset row indices by outcome label.
func strataIndices(d *dataset.Dataset) map[string][]int {
	strata := make(map[string][]int)
	for r := 0; r < d.NumRows(); r++ {
		label := d.Label(r)
		strata[label] = append(strata[label], r)
	}
	return strata
}

// strataKeys returns stratum labels in sorted order for deterministic
// iteration.
func strataKeys(strata map[string][]int) []string {
	keys := make([]string, 0, len(strata))
	for k := range strata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
