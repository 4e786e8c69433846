package model

import (
	"fmt"
	"math"

	"gridfit/domain/selection"
)

// LogisticRegression fits a regularized logistic model by batch gradient
// descent. Hyperparameters: l2 (ridge penalty), epochs, lr (step size).
// Expects scaled predictors.
type LogisticRegression struct{}

func (f *LogisticRegression) Name() string { return "logreg" }

func (f *LogisticRegression) NeedsScaling() bool { return true }

// Simplicity prefers stronger regularization.
func (f *LogisticRegression) Simplicity(params selection.Params) float64 {
	return -params.Get("l2", 0)
}

func (f *LogisticRegression) New(params selection.Params) (Classifier, error) {
	l2 := params.Get("l2", 0)
	epochs := int(params.Get("epochs", 200))
	lr := params.Get("lr", 0.1)

	if l2 < 0 {
		return nil, fmt.Errorf("logreg: l2 must be non-negative, got %g", l2)
	}
	if epochs < 1 {
		return nil, fmt.Errorf("logreg: epochs must be at least 1, got %d", epochs)
	}
	if lr <= 0 {
		return nil, fmt.Errorf("logreg: lr must be positive, got %g", lr)
	}

	return &logregClassifier{l2: l2, epochs: epochs, lr: lr}, nil
}

type logregClassifier struct {
	l2     float64
	epochs int
	lr     float64

	weights []float64
	bias    float64
}

func (c *logregClassifier) Fit(x [][]float64, y []bool) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("logreg: invalid training shape: %d rows, %d labels", len(x), len(y))
	}

	cols := len(x[0])
	c.weights = make([]float64, cols)
	c.bias = 0
	n := float64(len(x))

	grad := make([]float64, cols)
	for epoch := 0; epoch < c.epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0
		for i, row := range x {
			target := 0.0
			if y[i] {
				target = 1
			}
			err := c.prob(row) - target
			for j := range row {
				grad[j] += err * row[j]
			}
			gradBias += err
		}
		for j := range c.weights {
			c.weights[j] -= c.lr * (grad[j]/n + c.l2*c.weights[j])
			if math.IsNaN(c.weights[j]) || math.IsInf(c.weights[j], 0) {
				return fmt.Errorf("logreg: diverged at epoch %d (lr %g too large?)", epoch, c.lr)
			}
		}
		c.bias -= c.lr * gradBias / n
	}
	return nil
}

func (c *logregClassifier) prob(x []float64) float64 {
	z := c.bias
	for j, w := range c.weights {
		z += w * x[j]
	}
	return sigmoid(z)
}

func (c *logregClassifier) Prob(x []float64) float64 {
	return c.prob(x)
}
