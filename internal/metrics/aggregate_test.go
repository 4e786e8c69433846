package metrics

import (
	"math"
	"testing"

	"gridfit/domain/selection"
)

// TestSummarize_GridOrderAndFailures verifies failed records are excluded
// from the mean but counted, and output follows grid order.
func TestSummarize_GridOrderAndFailures(t *testing.T) {
	grid := selection.ExpandGrid("gbm", map[string][]float64{
		"trees": {50, 100},
	})

	records := []selection.ScoreRecord{
		mustRecord(t, 0, 0, 0, 0.8),
		mustRecord(t, 0, 0, 1, 0.6),
		selection.NewFailedScoreRecord(0, 1, 0, errTest{}),
		mustRecord(t, 1, 0, 0, 0.9),
	}

	summaries := Summarize(grid, records)

	if len(summaries) != len(grid) {
		t.Fatalf("Expected %d summaries, got %d", len(grid), len(summaries))
	}
	for i, s := range summaries {
		if s.Config.Index != i {
			t.Errorf("Summary %d carries config index %d, expected grid order", i, s.Config.Index)
		}
	}

	first := summaries[0]
	if first.Completed != 2 || first.Failed != 1 {
		t.Errorf("Expected 2 completed and 1 failed, got %d/%d", first.Completed, first.Failed)
	}
	if math.Abs(first.MeanScore-0.7) > 1e-12 {
		t.Errorf("Expected mean 0.7 over successful folds only, got %f", first.MeanScore)
	}
	if first.StdErr <= 0 {
		t.Errorf("Expected positive standard error, got %f", first.StdErr)
	}

	second := summaries[1]
	if second.Completed != 1 || second.Failed != 0 {
		t.Errorf("Expected 1 completed and 0 failed, got %d/%d", second.Completed, second.Failed)
	}
	if second.StdErr != 0 {
		t.Errorf("Expected zero standard error for a single fold, got %f", second.StdErr)
	}
}

// TestSummarize_AllFailed verifies a configuration with no successful fold is
// summarized as ineligible rather than dropped.
func TestSummarize_AllFailed(t *testing.T) {
	grid := selection.ExpandGrid("gbm", map[string][]float64{"trees": {50}})

	records := []selection.ScoreRecord{
		selection.NewFailedScoreRecord(0, 0, 0, errTest{}),
		selection.NewFailedScoreRecord(0, 0, 1, errTest{}),
	}

	summaries := Summarize(grid, records)
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].Eligible() {
		t.Error("Configuration with zero successful folds should not be eligible")
	}
	if summaries[0].Failed != 2 {
		t.Errorf("Expected 2 failed folds, got %d", summaries[0].Failed)
	}
}

func mustRecord(t *testing.T, cfg, rep, fold int, score float64) selection.ScoreRecord {
	t.Helper()
	rec, err := selection.NewScoreRecord(cfg, rep, fold, score)
	if err != nil {
		t.Fatalf("Failed to build score record: %v", err)
	}
	return rec
}

type errTest struct{}

func (errTest) Error() string { return "fit blew up" }
