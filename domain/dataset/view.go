package dataset

import "gridfit/domain/core"

// View is a read-only row subset of a dataset. Views share the backing
// storage, so training and evaluation partitions (and every resampling fold)
// see exactly the same predictor columns.
type View struct {
	d    *Dataset
	rows []int
}

// NewView creates a view over the given underlying row indices.
func NewView(d *Dataset, rows []int) View {
	return View{d: d, rows: rows}
}

// All returns a view covering every row of the dataset.
func (d *Dataset) All() View {
	rows := make([]int, d.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return View{d: d, rows: rows}
}

// Len returns the number of rows in the view.
func (v View) Len() int { return len(v.rows) }

// Columns returns the predictor column keys of the backing dataset.
func (v View) Columns() []core.ColumnKey { return v.d.Columns() }

// NumColumns returns the predictor column count.
func (v View) NumColumns() int { return v.d.NumColumns() }

// Index returns the underlying dataset row index of view row i.
func (v View) Index(i int) int { return v.rows[i] }

// Value returns predictor column c of view row i.
func (v View) Value(c, i int) float64 { return v.d.Value(c, v.rows[i]) }

// Row copies the predictor vector of view row i into dst, which is grown as
// needed, and returns it.
func (v View) Row(i int, dst []float64) []float64 {
	if cap(dst) < v.d.NumColumns() {
		dst = make([]float64, v.d.NumColumns())
	}
	dst = dst[:v.d.NumColumns()]
	r := v.rows[i]
	for c := range dst {
		dst[c] = v.d.Value(c, r)
	}
	return dst
}

// Label returns the outcome label of view row i.
func (v View) Label(i int) string { return v.d.Label(v.rows[i]) }

// IsPositive reports whether view row i belongs to the positive class.
func (v View) IsPositive(i int) bool { return v.d.IsPositive(v.rows[i]) }

// Positive returns the positive class label of the backing dataset.
func (v View) Positive() string { return v.d.Positive() }

// ClassCounts returns per-class counts within the view.
func (v View) ClassCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range v.rows {
		counts[v.d.Label(r)]++
	}
	return counts
}

// Select returns a sub-view of this view addressed by view-relative indices.
// Fold held-in/held-out sets are produced this way from the training view.
func (v View) Select(indices []int) View {
	rows := make([]int, len(indices))
	for i, idx := range indices {
		rows[i] = v.rows[idx]
	}
	return View{d: v.d, rows: rows}
}

// PositiveRate returns the fraction of positive-class rows in the view.
func (v View) PositiveRate() float64 {
	if len(v.rows) == 0 {
		return 0
	}
	pos := 0
	for _, r := range v.rows {
		if v.d.IsPositive(r) {
			pos++
		}
	}
	return float64(pos) / float64(len(v.rows))
}
