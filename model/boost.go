package model

import (
	"fmt"
	"math"
	"sort"

	"gridfit/domain/selection"
)

// BoostedStumps is a gradient boosting machine over depth-limited regression
// trees. Hyperparameters: trees (boosting iterations), depth (interaction
// depth), shrinkage (learning rate), minobs (minimum node size).
type BoostedStumps struct{}

func (f *BoostedStumps) Name() string { return "gbm" }

func (f *BoostedStumps) NeedsScaling() bool { return false }

// Simplicity prefers fewer boosting iterations, then shallower trees.
func (f *BoostedStumps) Simplicity(params selection.Params) float64 {
	return params.Get("trees", 100)*100 + params.Get("depth", 1)
}

func (f *BoostedStumps) New(params selection.Params) (Classifier, error) {
	trees := int(params.Get("trees", 100))
	depth := int(params.Get("depth", 1))
	shrinkage := params.Get("shrinkage", 0.1)
	minObs := int(params.Get("minobs", 10))

	if trees < 1 {
		return nil, fmt.Errorf("gbm: trees must be at least 1, got %d", trees)
	}
	if depth < 1 {
		return nil, fmt.Errorf("gbm: depth must be at least 1, got %d", depth)
	}
	if shrinkage <= 0 || shrinkage > 1 {
		return nil, fmt.Errorf("gbm: shrinkage must be in (0,1], got %g", shrinkage)
	}
	if minObs < 1 {
		return nil, fmt.Errorf("gbm: minobs must be at least 1, got %d", minObs)
	}

	return &gbmClassifier{
		trees:     trees,
		depth:     depth,
		shrinkage: shrinkage,
		minObs:    minObs,
	}, nil
}

type gbmClassifier struct {
	trees     int
	depth     int
	shrinkage float64
	minObs    int

	bias     float64
	ensemble []*regressionTree
}

func (g *gbmClassifier) Fit(x [][]float64, y []bool) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("gbm: invalid training shape: %d rows, %d labels", len(x), len(y))
	}

	pos := 0
	for _, label := range y {
		if label {
			pos++
		}
	}
	if pos == 0 || pos == len(y) {
		return fmt.Errorf("gbm: training data contains a single class")
	}

	// Log-odds initialization.
	p := float64(pos) / float64(len(y))
	g.bias = math.Log(p / (1 - p))

	score := make([]float64, len(x))
	for i := range score {
		score[i] = g.bias
	}

	target := make([]float64, len(x))
	residual := make([]float64, len(x))
	hessian := make([]float64, len(x))
	for i, label := range y {
		if label {
			target[i] = 1
		}
	}

	g.ensemble = make([]*regressionTree, 0, g.trees)
	for m := 0; m < g.trees; m++ {
		for i := range x {
			prob := sigmoid(score[i])
			residual[i] = target[i] - prob
			hessian[i] = prob * (1 - prob)
		}

		tree := growTree(x, residual, hessian, allIndices(len(x)), g.depth, g.minObs)
		g.ensemble = append(g.ensemble, tree)
		for i := range x {
			score[i] += g.shrinkage * tree.predict(x[i])
		}
	}
	return nil
}

func (g *gbmClassifier) Prob(x []float64) float64 {
	score := g.bias
	for _, tree := range g.ensemble {
		score += g.shrinkage * tree.predict(x)
	}
	return sigmoid(score)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// regressionTree is one depth-limited least-squares tree fit to the current
// gradient, with Newton-step leaf values.
type regressionTree struct {
	feature   int
	threshold float64
	left      *regressionTree
	right     *regressionTree
	value     float64
	leaf      bool
}

func (t *regressionTree) predict(x []float64) float64 {
	node := t
	for !node.leaf {
		if x[node.feature] < node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func growTree(x [][]float64, residual, hessian []float64, indices []int, depth, minObs int) *regressionTree {
	if len(indices) < 2*minObs || depth < 1 {
		return leafNode(residual, hessian, indices)
	}

	// Reaching here implies len(indices) >= 2*minObs, so a degenerate node
	// always collapses to a leaf rather than a nil subtree.
	feature, threshold, ok := bestSplit(x, residual, indices, minObs)
	if !ok {
		return leafNode(residual, hessian, indices)
	}

	var left, right []int
	for _, i := range indices {
		if x[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &regressionTree{
		feature:   feature,
		threshold: threshold,
		left:      growTree(x, residual, hessian, left, depth-1, minObs),
		right:     growTree(x, residual, hessian, right, depth-1, minObs),
	}
}

func leafNode(residual, hessian []float64, indices []int) *regressionTree {
	// Newton step: sum of gradients over sum of hessians, clamped to keep a
	// near-pure leaf from producing an unbounded log-odds update.
	var num, den float64
	for _, i := range indices {
		num += residual[i]
		den += hessian[i]
	}
	value := 0.0
	if den > 1e-12 {
		value = num / den
	}
	if value > 4 {
		value = 4
	}
	if value < -4 {
		value = -4
	}
	return &regressionTree{leaf: true, value: value}
}

// bestSplit scans every feature for the threshold maximizing the reduction in
// squared error of the residuals.
func bestSplit(x [][]float64, residual []float64, indices []int, minObs int) (feature int, threshold float64, ok bool) {
	if len(indices) == 0 {
		return 0, 0, false
	}

	var totalSum float64
	for _, i := range indices {
		totalSum += residual[i]
	}
	n := float64(len(indices))
	baseGain := totalSum * totalSum / n

	bestGain := baseGain
	cols := len(x[indices[0]])

	order := make([]int, len(indices))
	for c := 0; c < cols; c++ {
		copy(order, indices)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][c] < x[order[b]][c] })

		leftSum := 0.0
		for pos := 0; pos < len(order)-1; pos++ {
			leftSum += residual[order[pos]]
			if pos+1 < minObs || len(order)-pos-1 < minObs {
				continue
			}
			lo, hi := x[order[pos]][c], x[order[pos+1]][c]
			if lo == hi {
				continue
			}
			nl := float64(pos + 1)
			nr := n - nl
			rightSum := totalSum - leftSum
			gain := leftSum*leftSum/nl + rightSum*rightSum/nr
			if gain > bestGain+1e-12 {
				bestGain = gain
				feature = c
				threshold = (lo + hi) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}
