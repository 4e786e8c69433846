package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"gridfit/domain/selection"
)

// Summarize aggregates the per-fold score table into one summary per grid
// configuration: mean score, standard error, and completed/failed counts.
// Failed records are excluded from the aggregate. Output is in grid order.
func Summarize(grid selection.Grid, records []selection.ScoreRecord) []selection.ConfigSummary {
	scores := make([][]float64, len(grid))
	failed := make([]int, len(grid))
	for _, rec := range records {
		if rec.ConfigIndex < 0 || rec.ConfigIndex >= len(grid) {
			continue
		}
		if rec.Failed() {
			failed[rec.ConfigIndex]++
			continue
		}
		scores[rec.ConfigIndex] = append(scores[rec.ConfigIndex], rec.Score)
	}

	summaries := make([]selection.ConfigSummary, len(grid))
	for i, cfg := range grid {
		s := selection.ConfigSummary{
			Config:    cfg,
			Completed: len(scores[i]),
			Failed:    failed[i],
		}
		if len(scores[i]) > 0 {
			s.MeanScore = stat.Mean(scores[i], nil)
		}
		if len(scores[i]) > 1 {
			s.StdErr = stat.StdDev(scores[i], nil) / math.Sqrt(float64(len(scores[i])))
		}
		summaries[i] = s
	}
	return summaries
}
