package resample

import (
	"math/rand"
	"sort"

	"gridfit/domain/core"
	"gridfit/domain/dataset"
	"gridfit/internal/errors"
)

// FoldAssignment is a deterministic partition of the training view into
// held-in/held-out subsets, repeated across independent repetitions. It is
// generated once per run from a fixed seed and reused identically across
// every grid configuration; that reuse is the invariant that makes
// cross-configuration comparison valid. All indices are view-relative and the
// assignment is read-only after generation, so concurrent fold fits share it
// without locking.
type FoldAssignment struct {
	Folds   int
	Repeats int
	heldOut [][][]int // [repeat][fold] -> held-out indices into the training view
	heldIn  [][][]int // complement of heldOut, precomputed
}

// RepeatedStratifiedKFold generates folds×repeats held-in/held-out splits of
// the training view, stratified on the outcome label. Each repetition deals
// every class's shuffled rows round-robin across the folds, so class
// proportions are preserved per fold and every row is held out exactly once
// per repetition.
func RepeatedStratifiedKFold(train dataset.View, folds, repeats int, seed int64) (*FoldAssignment, error) {
	if folds < 2 {
		return nil, errors.Preconditionf("fold count must be at least 2, got %d", folds)
	}
	if repeats < 1 {
		return nil, errors.Preconditionf("repeat count must be at least 1, got %d", repeats)
	}

	classes := make(map[string][]int)
	for i := 0; i < train.Len(); i++ {
		label := train.Label(i)
		classes[label] = append(classes[label], i)
	}
	for _, label := range sortedKeys(classes) {
		if len(classes[label]) < folds {
			return nil, errors.Preconditionf("class %q has %d rows, fewer than %d folds", label, len(classes[label]), folds)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	fa := &FoldAssignment{
		Folds:   folds,
		Repeats: repeats,
		heldOut: make([][][]int, repeats),
		heldIn:  make([][][]int, repeats),
	}

	for rep := 0; rep < repeats; rep++ {
		out := make([][]int, folds)
		for _, label := range sortedKeys(classes) {
			rows := classes[label]
			shuffled := make([]int, len(rows))
			copy(shuffled, rows)
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			for i, idx := range shuffled {
				f := i % folds
				out[f] = append(out[f], idx)
			}
		}

		in := make([][]int, folds)
		for f := 0; f < folds; f++ {
			sort.Ints(out[f])
			member := make([]bool, train.Len())
			for _, idx := range out[f] {
				member[idx] = true
			}
			for i := 0; i < train.Len(); i++ {
				if !member[i] {
					in[f] = append(in[f], i)
				}
			}
		}
		fa.heldOut[rep] = out
		fa.heldIn[rep] = in
	}

	return fa, nil
}

// HeldOut returns the held-out training-view indices for (repeat, fold).
func (fa *FoldAssignment) HeldOut(repeat, fold int) []int {
	return fa.heldOut[repeat][fold]
}

// HeldIn returns the held-in training-view indices for (repeat, fold).
func (fa *FoldAssignment) HeldIn(repeat, fold int) []int {
	return fa.heldIn[repeat][fold]
}

// Hash computes a deterministic fingerprint over the complete assignment.
func (fa *FoldAssignment) Hash() core.FoldHash {
	var flat [][]int
	for rep := 0; rep < fa.Repeats; rep++ {
		flat = append(flat, fa.heldOut[rep]...)
	}
	return core.ComputeFoldHash(flat)
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
