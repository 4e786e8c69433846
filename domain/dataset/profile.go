package dataset

import (
	"math"

	"github.com/montanaflynn/stats"

	"gridfit/domain/core"
)

// ColumnProfile summarizes one predictor column.
type ColumnProfile struct {
	Key          core.ColumnKey `json:"key"`
	Mean         float64        `json:"mean"`
	StdDev       float64        `json:"std_dev"`
	Min          float64        `json:"min"`
	Max          float64        `json:"max"`
	Median       float64        `json:"median"`
	MissingCount int            `json:"missing_count"`
}

// Profile computes per-column summaries over the dataset. NaN cells count as
// missing and are excluded from the summary statistics.
func (d *Dataset) Profile() []ColumnProfile {
	profiles := make([]ColumnProfile, len(d.columns))
	for c, key := range d.columns {
		clean := make([]float64, 0, len(d.values[c]))
		missing := 0
		for _, v := range d.values[c] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				missing++
				continue
			}
			clean = append(clean, v)
		}

		p := ColumnProfile{Key: key, MissingCount: missing}
		if len(clean) > 0 {
			p.Mean, _ = stats.Mean(clean)
			p.StdDev, _ = stats.StandardDeviation(clean)
			p.Min, _ = stats.Min(clean)
			p.Max, _ = stats.Max(clean)
			p.Median, _ = stats.Median(clean)
		}
		profiles[c] = p
	}
	return profiles
}
