package metrics

import (
	"math"
	"testing"

	"gridfit/domain/selection"
)

// TestConfusion_CountsAndTotal verifies each quadrant is counted at the
// threshold and the total always equals the prediction count.
func TestConfusion_CountsAndTotal(t *testing.T) {
	preds := []Prediction{
		{Prob: 0.9, Actual: true},  // TP
		{Prob: 0.8, Actual: false}, // FP
		{Prob: 0.3, Actual: false}, // TN
		{Prob: 0.2, Actual: true},  // FN
		{Prob: 0.5, Actual: true},  // TP (threshold is inclusive)
	}

	m := Confusion(preds, DefaultThreshold)

	if m.TruePositive != 2 || m.FalsePositive != 1 || m.TrueNegative != 1 || m.FalseNegative != 1 {
		t.Errorf("Unexpected confusion matrix: %+v", m)
	}
	if m.Total() != len(preds) {
		t.Errorf("Expected total %d, got %d", len(preds), m.Total())
	}
	if got := m.Accuracy(); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("Expected accuracy 0.6, got %f", got)
	}
}

// TestKappa_PerfectAndChance verifies kappa is 1 for perfect agreement and 0
// when observed agreement equals chance.
func TestKappa_PerfectAndChance(t *testing.T) {
	perfect := selection.ConfusionMatrix{TruePositive: 10, TrueNegative: 10}
	if got := Kappa(perfect); math.Abs(got-1) > 1e-12 {
		t.Errorf("Expected kappa 1 for perfect agreement, got %f", got)
	}

	// Each cell equal: observed 0.5, expected 0.5.
	chance := selection.ConfusionMatrix{TruePositive: 5, FalsePositive: 5, TrueNegative: 5, FalseNegative: 5}
	if got := Kappa(chance); math.Abs(got) > 1e-12 {
		t.Errorf("Expected kappa 0 at chance agreement, got %f", got)
	}

	if got := Kappa(selection.ConfusionMatrix{}); got != 0 {
		t.Errorf("Expected kappa 0 for empty matrix, got %f", got)
	}
}

// TestROC_KnownAUC verifies the trapezoidal AUC on a hand-checked curve.
func TestROC_KnownAUC(t *testing.T) {
	// Perfectly separated: every positive outranks every negative.
	separated := []Prediction{
		{Prob: 0.9, Actual: true},
		{Prob: 0.8, Actual: true},
		{Prob: 0.2, Actual: false},
		{Prob: 0.1, Actual: false},
	}
	curve, err := ROC(separated)
	if err != nil {
		t.Fatalf("ROC failed: %v", err)
	}
	if math.Abs(curve.AUC-1) > 1e-12 {
		t.Errorf("Expected AUC 1 for separated classes, got %f", curve.AUC)
	}

	// One inversion among 2x2 pairs: AUC = 3/4.
	inverted := []Prediction{
		{Prob: 0.9, Actual: true},
		{Prob: 0.7, Actual: false},
		{Prob: 0.6, Actual: true},
		{Prob: 0.1, Actual: false},
	}
	curve, err = ROC(inverted)
	if err != nil {
		t.Fatalf("ROC failed: %v", err)
	}
	if math.Abs(curve.AUC-0.75) > 1e-12 {
		t.Errorf("Expected AUC 0.75, got %f", curve.AUC)
	}
}

// TestROC_CurveShape verifies the curve runs from (0,0) to (1,1) with
// non-decreasing FPR and TPR, and ties collapse to one operating point.
func TestROC_CurveShape(t *testing.T) {
	preds := []Prediction{
		{Prob: 0.9, Actual: true},
		{Prob: 0.5, Actual: true},
		{Prob: 0.5, Actual: false},
		{Prob: 0.5, Actual: true},
		{Prob: 0.1, Actual: false},
	}

	curve, err := ROC(preds)
	if err != nil {
		t.Fatalf("ROC failed: %v", err)
	}

	first := curve.Points[0]
	last := curve.Points[len(curve.Points)-1]
	if first.FPR != 0 || first.TPR != 0 {
		t.Errorf("Curve should start at (0,0), got (%f,%f)", first.FPR, first.TPR)
	}
	if last.FPR != 1 || last.TPR != 1 {
		t.Errorf("Curve should end at (1,1), got (%f,%f)", last.FPR, last.TPR)
	}

	for i := 1; i < len(curve.Points); i++ {
		if curve.Points[i].FPR < curve.Points[i-1].FPR {
			t.Errorf("FPR decreased at point %d", i)
		}
		if curve.Points[i].TPR < curve.Points[i-1].TPR {
			t.Errorf("TPR decreased at point %d", i)
		}
	}

	// Origin plus one point per distinct probability (0.9, 0.5, 0.1).
	if len(curve.Points) != 4 {
		t.Errorf("Expected 4 operating points with tied probabilities collapsed, got %d", len(curve.Points))
	}

	if curve.AUC < 0 || curve.AUC > 1 {
		t.Errorf("AUC should be in [0,1], got %f", curve.AUC)
	}
}

// TestROC_SingleClass verifies a degenerate evaluation set is rejected.
func TestROC_SingleClass(t *testing.T) {
	preds := []Prediction{
		{Prob: 0.9, Actual: true},
		{Prob: 0.1, Actual: true},
	}
	if _, err := ROC(preds); err == nil {
		t.Error("Expected error when only one class is present")
	}
}

// TestScore_Metrics verifies metric dispatch.
func TestScore_Metrics(t *testing.T) {
	preds := []Prediction{
		{Prob: 0.9, Actual: true},
		{Prob: 0.8, Actual: true},
		{Prob: 0.2, Actual: false},
		{Prob: 0.1, Actual: false},
	}

	for _, metric := range []selection.Metric{selection.MetricAUC, selection.MetricAccuracy, selection.MetricKappa} {
		score, err := Score(metric, preds)
		if err != nil {
			t.Fatalf("Score(%s) failed: %v", metric, err)
		}
		if math.Abs(score-1) > 1e-12 {
			t.Errorf("Expected %s score 1 for perfect predictions, got %f", metric, score)
		}
	}

	if _, err := Score(selection.MetricAUC, nil); err == nil {
		t.Error("Expected error for empty predictions")
	}
	if _, err := Score(selection.Metric("logloss"), preds); err == nil {
		t.Error("Expected error for unknown metric")
	}
}

// TestEvaluate_Holdout verifies the combined evaluation is internally
// consistent.
func TestEvaluate_Holdout(t *testing.T) {
	preds := []Prediction{
		{Prob: 0.9, Actual: true},
		{Prob: 0.6, Actual: false},
		{Prob: 0.4, Actual: true},
		{Prob: 0.1, Actual: false},
	}

	eval, err := Evaluate(preds)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if eval.Size != len(preds) {
		t.Errorf("Expected size %d, got %d", len(preds), eval.Size)
	}
	if eval.Confusion.Total() != len(preds) {
		t.Errorf("Confusion total %d does not match evaluation size %d", eval.Confusion.Total(), len(preds))
	}
	if eval.Accuracy != eval.Confusion.Accuracy() {
		t.Errorf("Accuracy %f does not match confusion accuracy %f", eval.Accuracy, eval.Confusion.Accuracy())
	}
	if eval.Kappa != Kappa(eval.Confusion) {
		t.Errorf("Kappa %f does not match confusion kappa %f", eval.Kappa, Kappa(eval.Confusion))
	}
}
