package selection

import "fmt"

// SimplicityFunc ranks a configuration's complexity; lower means simpler.
// Model families that define a natural complexity order (e.g. boosting
// iterations) supply one for tie-breaking.
type SimplicityFunc func(Config) float64

// SelectBest picks the winning configuration from a score table. The rule:
// highest aggregate mean score among eligible configurations; exact ties are
// broken by family simplicity when a SimplicityFunc is supplied, then by
// first occurrence in grid order. Re-selection from the same table always
// returns the same configuration.
//
// A configuration with zero successful fold fits is ineligible. If no
// configuration is eligible the run fails fast rather than silently selecting
// a non-fit result.
func SelectBest(summaries []ConfigSummary, simplicity SimplicityFunc) (Config, error) {
	best := -1
	for i, s := range summaries {
		if !s.Eligible() {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		if better(summaries[i], summaries[best], simplicity) {
			best = i
		}
	}
	if best < 0 {
		return Config{}, fmt.Errorf("no configuration produced a successful fit (%d candidates)", len(summaries))
	}
	return summaries[best].Config, nil
}

func better(a, b ConfigSummary, simplicity SimplicityFunc) bool {
	if a.MeanScore != b.MeanScore {
		return a.MeanScore > b.MeanScore
	}
	if simplicity != nil {
		sa, sb := simplicity(a.Config), simplicity(b.Config)
		if sa != sb {
			return sa < sb
		}
	}
	// Grid order: the earlier entry wins, so a later entry is never better.
	return a.Config.Index < b.Config.Index
}
