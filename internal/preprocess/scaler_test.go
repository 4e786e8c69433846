package preprocess

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

// TestScaler_ZeroMeanUnitVariance verifies the fitted transform standardizes
// the data it was fit on.
func TestScaler_ZeroMeanUnitVariance(t *testing.T) {
	x := [][]float64{
		{1, 100},
		{2, 200},
		{3, 300},
		{4, 400},
		{5, 500},
	}

	s := Fit(x)
	s.Transform(x)

	for c := 0; c < 2; c++ {
		col := make([]float64, len(x))
		for r := range x {
			col[r] = x[r][c]
		}
		if mean := stat.Mean(col, nil); math.Abs(mean) > 1e-12 {
			t.Errorf("Column %d mean after scaling should be 0, got %g", c, mean)
		}
		if sd := stat.StdDev(col, nil); math.Abs(sd-1) > 1e-12 {
			t.Errorf("Column %d std dev after scaling should be 1, got %g", c, sd)
		}
	}
}

// TestScaler_HeldInStatisticsOnly verifies held-out rows are transformed with
// statistics from the held-in rows, not their own.
func TestScaler_HeldInStatisticsOnly(t *testing.T) {
	heldIn := [][]float64{{0}, {10}}  // mean 5, sd ~7.07
	heldOut := [][]float64{{5}, {15}} // different distribution

	s := Fit(heldIn)
	s.Transform(heldOut)

	// 5 is exactly the held-in mean, so it must map to 0.
	if math.Abs(heldOut[0][0]) > 1e-12 {
		t.Errorf("Held-in mean should map to 0, got %g", heldOut[0][0])
	}
	// 15 is above the held-in mean, so it must map to a positive value.
	if heldOut[1][0] <= 0 {
		t.Errorf("Value above the held-in mean should map positive, got %g", heldOut[1][0])
	}
}

// TestScaler_ConstantColumn verifies a zero-variance column is centered
// without dividing by zero.
func TestScaler_ConstantColumn(t *testing.T) {
	x := [][]float64{{7, 1}, {7, 2}, {7, 3}}

	s := Fit(x)
	s.Transform(x)

	for r := range x {
		if math.IsNaN(x[r][0]) || math.IsInf(x[r][0], 0) {
			t.Fatalf("Constant column produced non-finite value at row %d: %g", r, x[r][0])
		}
		if x[r][0] != 0 {
			t.Errorf("Constant column should center to 0, got %g at row %d", x[r][0], r)
		}
	}
}

// TestScaler_EmptyFit verifies an empty fit yields an identity-safe scaler.
func TestScaler_EmptyFit(t *testing.T) {
	s := Fit(nil)
	row := []float64{1, 2, 3}
	s.TransformRow(row)
	if row[0] != 1 || row[1] != 2 || row[2] != 3 {
		t.Errorf("Empty scaler should leave rows unchanged, got %v", row)
	}
}
