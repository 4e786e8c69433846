package model

import (
	"fmt"
	"sort"

	"gridfit/domain/selection"
)

// Classifier is a binary probabilistic classifier. Fit trains on a row-major
// predictor matrix with per-row positive-class labels; Prob returns the
// positive-class probability for one predictor vector. A fitted classifier is
// an opaque artifact: the workflow only consumes it through Prob.
type Classifier interface {
	Fit(x [][]float64, y []bool) error
	Prob(x []float64) float64
}

// Family constructs classifiers of one model family from hyperparameters.
type Family interface {
	// Name is the family identifier used in configuration grids.
	Name() string

	// New builds an unfitted classifier. Degenerate parameter combinations
	// return an error, which the workflow records as a missing score rather
	// than aborting the run.
	New(params selection.Params) (Classifier, error)

	// Simplicity ranks a parameter tuple's complexity; lower means simpler.
	// Used to break exact score ties (e.g. fewer boosting iterations win).
	Simplicity(params selection.Params) float64

	// NeedsScaling reports whether predictors should be centered and scaled
	// before fitting, using statistics estimated on held-in rows only.
	NeedsScaling() bool
}

// Registry maps family names to implementations.
type Registry struct {
	families map[string]Family
}

// NewRegistry creates a registry pre-loaded with the built-in families.
func NewRegistry() *Registry {
	r := &Registry{families: make(map[string]Family)}
	r.Register(&BoostedStumps{})
	r.Register(&KNN{})
	r.Register(&LogisticRegression{})
	return r
}

// Register adds a family, replacing any existing one with the same name.
func (r *Registry) Register(f Family) {
	r.families[f.Name()] = f
}

// Lookup returns the family by name.
func (r *Registry) Lookup(name string) (Family, error) {
	f, ok := r.families[name]
	if !ok {
		return nil, fmt.Errorf("unknown model family %q", name)
	}
	return f, nil
}

// Names lists the registered family names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
