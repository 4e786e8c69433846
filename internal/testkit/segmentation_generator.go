package testkit

import (
	"fmt"
	"math/rand"

	"gridfit/domain/core"
	"gridfit/domain/dataset"
)

// Class labels used by the synthetic segmentation dataset.
const (
	ClassWell   = "well-segmented"
	ClassPoorly = "poorly-segmented"
)

// SegmentationConfig configures the synthetic cell-segmentation generator.
type SegmentationConfig struct {
	Rows         int     `json:"rows"`
	Features     int     `json:"features"`
	PositiveRate float64 `json:"positive_rate"` // fraction of well-segmented rows
	Separation   float64 `json:"separation"`    // class mean shift in feature space
	Noise        float64 `json:"noise"`         // per-feature gaussian noise scale
	Seed         int64   `json:"seed"`
}

// DefaultSegmentationConfig returns a well-behaved two-class problem.
func DefaultSegmentationConfig() SegmentationConfig {
	return SegmentationConfig{
		Rows:         400,
		Features:     6,
		PositiveRate: 0.45,
		Separation:   1.5,
		Noise:        1.0,
		Seed:         42,
	}
}

// SegmentationGenerator produces deterministic two-class tabular data in the
// shape of a cell-segmentation screen: numeric morphology features with a
// well/poorly segmented outcome.
type SegmentationGenerator struct {
	config SegmentationConfig
	rng    *rand.Rand
}

// NewSegmentationGenerator creates a generator seeded from the config.
func NewSegmentationGenerator(config SegmentationConfig) *SegmentationGenerator {
	return &SegmentationGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the dataset. The first half of the features carry the class
// signal (shifted means); the rest are pure noise.
func (g *SegmentationGenerator) Generate() (*dataset.Dataset, error) {
	cfg := g.config
	if cfg.Rows < 10 {
		return nil, fmt.Errorf("testkit: need at least 10 rows, got %d", cfg.Rows)
	}
	if cfg.Features < 1 {
		return nil, fmt.Errorf("testkit: need at least 1 feature, got %d", cfg.Features)
	}

	columns := make([]core.ColumnKey, cfg.Features)
	for c := range columns {
		columns[c] = core.ColumnKey(fmt.Sprintf("feature_%02d", c+1))
	}

	values := make([][]float64, cfg.Features)
	for c := range values {
		values[c] = make([]float64, cfg.Rows)
	}
	labels := make([]string, cfg.Rows)

	informative := cfg.Features/2 + 1
	for r := 0; r < cfg.Rows; r++ {
		positive := g.rng.Float64() < cfg.PositiveRate
		if positive {
			labels[r] = ClassWell
		} else {
			labels[r] = ClassPoorly
		}
		for c := 0; c < cfg.Features; c++ {
			v := g.rng.NormFloat64() * cfg.Noise
			if positive && c < informative {
				v += cfg.Separation
			}
			values[c][r] = v
		}
	}

	return dataset.New("synthetic-segmentation", columns, "class", ClassWell, values, labels)
}

// MustGenerate builds the dataset and panics on error. Test helper.
func (g *SegmentationGenerator) MustGenerate() *dataset.Dataset {
	d, err := g.Generate()
	if err != nil {
		panic(err)
	}
	return d
}

// SingleClassDataset builds a dataset whose rows all share one outcome label.
// Used to exercise the fatal single-class precondition.
func SingleClassDataset(rows int) *dataset.Dataset {
	columns := []core.ColumnKey{"feature_01", "feature_02"}
	values := [][]float64{make([]float64, rows), make([]float64, rows)}
	labels := make([]string, rows)
	rng := rand.New(rand.NewSource(7))
	for r := 0; r < rows; r++ {
		values[0][r] = rng.NormFloat64()
		values[1][r] = rng.NormFloat64()
		labels[r] = ClassPoorly
	}
	d, err := dataset.New("single-class", columns, "class", ClassWell, values, labels)
	if err != nil {
		panic(err)
	}
	return d
}
