package metrics

import (
	"math"
	"sort"

	"gridfit/domain/selection"
	"gridfit/internal/errors"
)

// Prediction pairs a model's positive-class probability with the true label.
type Prediction struct {
	Prob   float64
	Actual bool
}

// DefaultThreshold is the operating point used for confusion matrices.
const DefaultThreshold = 0.5

// Confusion counts predicted-vs-actual outcomes at the given probability
// threshold. The matrix total always equals len(preds).
func Confusion(preds []Prediction, threshold float64) selection.ConfusionMatrix {
	var m selection.ConfusionMatrix
	for _, p := range preds {
		predicted := p.Prob >= threshold
		switch {
		case predicted && p.Actual:
			m.TruePositive++
		case predicted && !p.Actual:
			m.FalsePositive++
		case !predicted && !p.Actual:
			m.TrueNegative++
		default:
			m.FalseNegative++
		}
	}
	return m
}

// Kappa computes Cohen's kappa from a confusion matrix: agreement beyond the
// chance level implied by the marginal distributions.
func Kappa(m selection.ConfusionMatrix) float64 {
	total := float64(m.Total())
	if total == 0 {
		return 0
	}
	observed := float64(m.TruePositive+m.TrueNegative) / total
	expectedPos := float64(m.TruePositive+m.FalseNegative) / total * float64(m.TruePositive+m.FalsePositive) / total
	expectedNeg := float64(m.TrueNegative+m.FalsePositive) / total * float64(m.TrueNegative+m.FalseNegative) / total
	expected := expectedPos + expectedNeg
	if expected == 1 {
		return 0
	}
	return (observed - expected) / (1 - expected)
}

// ROC sweeps the decision threshold over every distinct predicted probability
// and returns the full curve of (FPR, TPR) operating points, ordered by
// non-decreasing FPR from (0,0) to (1,1), with the trapezoidal area as a
// scalar summary. Requires both classes to be present.
func ROC(preds []Prediction) (selection.ROCCurve, error) {
	pos, neg := 0, 0
	for _, p := range preds {
		if p.Actual {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return selection.ROCCurve{}, errors.FitFailed("ROC requires both classes in the evaluation set", nil)
	}

	sorted := make([]Prediction, len(preds))
	copy(sorted, preds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Prob > sorted[j].Prob })

	points := []selection.ROCPoint{{FPR: 0, TPR: 0, Threshold: math.Inf(1)}}
	tp, fp := 0, 0
	for i := 0; i < len(sorted); {
		// Consume all predictions sharing this probability so tied scores
		// produce a single operating point.
		prob := sorted[i].Prob
		for i < len(sorted) && sorted[i].Prob == prob {
			if sorted[i].Actual {
				tp++
			} else {
				fp++
			}
			i++
		}
		points = append(points, selection.ROCPoint{
			FPR:       float64(fp) / float64(neg),
			TPR:       float64(tp) / float64(pos),
			Threshold: prob,
		})
	}

	auc := 0.0
	for i := 1; i < len(points); i++ {
		auc += (points[i].FPR - points[i-1].FPR) * (points[i].TPR + points[i-1].TPR) / 2
	}

	return selection.ROCCurve{Points: points, AUC: auc}, nil
}

// Score computes a single metric value over the predictions.
func Score(metric selection.Metric, preds []Prediction) (float64, error) {
	if len(preds) == 0 {
		return 0, errors.FitFailed("no predictions to score", nil)
	}
	switch metric {
	case selection.MetricAUC:
		curve, err := ROC(preds)
		if err != nil {
			return 0, err
		}
		return curve.AUC, nil
	case selection.MetricAccuracy:
		return Confusion(preds, DefaultThreshold).Accuracy(), nil
	case selection.MetricKappa:
		return Kappa(Confusion(preds, DefaultThreshold)), nil
	}
	return 0, errors.Preconditionf("unknown metric %q", metric)
}

// Evaluate produces the full holdout evaluation: confusion matrix at the
// default threshold, the complete ROC curve, and scalar summaries.
func Evaluate(preds []Prediction) (selection.HoldoutEvaluation, error) {
	curve, err := ROC(preds)
	if err != nil {
		return selection.HoldoutEvaluation{}, err
	}
	confusion := Confusion(preds, DefaultThreshold)
	return selection.HoldoutEvaluation{
		Size:      len(preds),
		Confusion: confusion,
		ROC:       curve,
		Accuracy:  confusion.Accuracy(),
		Kappa:     Kappa(confusion),
	}, nil
}
