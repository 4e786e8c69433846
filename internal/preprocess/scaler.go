package preprocess

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler centers and scales predictor columns to zero mean and unit variance.
// It must be fit only on held-in rows and then applied to held-out rows;
// fitting on the full training set before resampling would leak information
// across the fold boundary.
type Scaler struct {
	mean []float64
	std  []float64
}

// Fit estimates per-column means and standard deviations from x (row-major).
func Fit(x [][]float64) *Scaler {
	if len(x) == 0 {
		return &Scaler{}
	}
	cols := len(x[0])
	s := &Scaler{
		mean: make([]float64, cols),
		std:  make([]float64, cols),
	}
	col := make([]float64, len(x))
	for c := 0; c < cols; c++ {
		for r := range x {
			col[r] = x[r][c]
		}
		s.mean[c] = stat.Mean(col, nil)
		s.std[c] = stat.StdDev(col, nil)
		if s.std[c] == 0 || math.IsNaN(s.std[c]) {
			// Constant column: center only.
			s.std[c] = 1
		}
	}
	return s
}

// TransformRow scales one predictor vector in place and returns it.
func (s *Scaler) TransformRow(row []float64) []float64 {
	for c := range row {
		if c < len(s.mean) {
			row[c] = (row[c] - s.mean[c]) / s.std[c]
		}
	}
	return row
}

// Transform scales every row of x in place and returns x.
func (s *Scaler) Transform(x [][]float64) [][]float64 {
	for _, row := range x {
		s.TransformRow(row)
	}
	return x
}
