package model

import (
	"fmt"
	"sort"

	"gridfit/domain/selection"
)

// KNN is a k-nearest-neighbours classifier. Distances are Euclidean over the
// scaled predictor space, so the family requests centering/scaling.
type KNN struct{}

func (f *KNN) Name() string { return "knn" }

func (f *KNN) NeedsScaling() bool { return true }

// Simplicity prefers larger neighbourhoods (smoother decision surface).
func (f *KNN) Simplicity(params selection.Params) float64 {
	return -params.Get("k", 5)
}

func (f *KNN) New(params selection.Params) (Classifier, error) {
	k := int(params.Get("k", 5))
	if k < 1 {
		return nil, fmt.Errorf("knn: k must be at least 1, got %d", k)
	}
	return &knnClassifier{k: k}, nil
}

type knnClassifier struct {
	k int
	x [][]float64
	y []bool
}

func (c *knnClassifier) Fit(x [][]float64, y []bool) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("knn: invalid training shape: %d rows, %d labels", len(x), len(y))
	}
	if c.k > len(x) {
		return fmt.Errorf("knn: k=%d exceeds training size %d", c.k, len(x))
	}
	// Lazy learner: retain the training data.
	c.x = x
	c.y = y
	return nil
}

func (c *knnClassifier) Prob(x []float64) float64 {
	type neighbour struct {
		dist float64
		pos  bool
	}
	neighbours := make([]neighbour, len(c.x))
	for i, row := range c.x {
		d := 0.0
		for j := range row {
			diff := row[j] - x[j]
			d += diff * diff
		}
		neighbours[i] = neighbour{dist: d, pos: c.y[i]}
	}
	sort.Slice(neighbours, func(a, b int) bool { return neighbours[a].dist < neighbours[b].dist })

	pos := 0
	for i := 0; i < c.k; i++ {
		if neighbours[i].pos {
			pos++
		}
	}
	return float64(pos) / float64(c.k)
}
