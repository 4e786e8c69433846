package dataset

import (
	"fmt"
	"math"
	"strings"

	"gridfit/domain/core"
)

// Dataset is an immutable table of labeled observations. Rows are independent
// samples; columns are named numeric predictors plus one categorical outcome
// with exactly two classes. Storage is column-major so fold extraction never
// copies predictor data.
type Dataset struct {
	ID       core.DatasetID
	Name     string
	columns  []core.ColumnKey
	outcome  core.ColumnKey
	positive string
	values   [][]float64 // values[col][row]
	labels   []string    // outcome label per row
	colIndex map[core.ColumnKey]int
}

// New builds a dataset from column-major predictor values and per-row outcome
// labels. The predictor column set is fixed for the dataset's lifetime; every
// partition and fold derived from it shares the same columns.
func New(name string, columns []core.ColumnKey, outcome core.ColumnKey, positive string, values [][]float64, labels []string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("dataset requires at least one predictor column")
	}
	if len(values) != len(columns) {
		return nil, fmt.Errorf("column count mismatch: %d keys, %d value columns", len(columns), len(values))
	}
	if len(labels) < 2 {
		return nil, fmt.Errorf("dataset requires at least 2 rows, got %d", len(labels))
	}
	if strings.TrimSpace(positive) == "" {
		return nil, fmt.Errorf("positive class label cannot be empty")
	}

	colIndex := make(map[core.ColumnKey]int, len(columns))
	for i, key := range columns {
		if key == outcome {
			return nil, fmt.Errorf("outcome column %q cannot also be a predictor", key)
		}
		if _, dup := colIndex[key]; dup {
			return nil, fmt.Errorf("duplicate predictor column %q", key)
		}
		colIndex[key] = i
	}
	for i, col := range values {
		if len(col) != len(labels) {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", columns[i], len(col), len(labels))
		}
	}

	return &Dataset{
		ID:       core.DatasetID(core.NewID()),
		Name:     name,
		columns:  columns,
		outcome:  outcome,
		positive: positive,
		values:   values,
		labels:   labels,
		colIndex: colIndex,
	}, nil
}

// Columns returns the predictor column keys in stable order.
func (d *Dataset) Columns() []core.ColumnKey { return d.columns }

// Outcome returns the outcome column key.
func (d *Dataset) Outcome() core.ColumnKey { return d.outcome }

// Positive returns the positive class label.
func (d *Dataset) Positive() string { return d.positive }

// NumRows returns the number of observations.
func (d *Dataset) NumRows() int { return len(d.labels) }

// NumColumns returns the number of predictor columns.
func (d *Dataset) NumColumns() int { return len(d.columns) }

// Value returns the value of predictor column c at row r.
func (d *Dataset) Value(c, r int) float64 { return d.values[c][r] }

// Label returns the outcome label of row r.
func (d *Dataset) Label(r int) string { return d.labels[r] }

// IsPositive reports whether row r belongs to the positive class.
func (d *Dataset) IsPositive(r int) bool { return d.labels[r] == d.positive }

// ClassCounts returns per-class observation counts.
func (d *Dataset) ClassCounts() map[string]int {
	counts := make(map[string]int)
	for _, label := range d.labels {
		counts[label]++
	}
	return counts
}

// Classes returns the distinct outcome labels in first-seen order.
func (d *Dataset) Classes() []string {
	seen := make(map[string]bool)
	var classes []string
	for _, label := range d.labels {
		if !seen[label] {
			seen[label] = true
			classes = append(classes, label)
		}
	}
	return classes
}

// HasMissing reports whether row r contains a NaN predictor value.
func (d *Dataset) HasMissing(r int) bool {
	for c := range d.columns {
		if math.IsNaN(d.values[c][r]) {
			return true
		}
	}
	return false
}

// Fingerprint computes a deterministic content hash over columns, labels and
// values. Two datasets with identical content always fingerprint the same.
func (d *Dataset) Fingerprint() core.DatasetHash {
	var data strings.Builder
	for _, key := range d.columns {
		data.WriteString(key.String())
		data.WriteString(";")
	}
	data.WriteString(d.outcome.String())
	data.WriteString("|")
	for r, label := range d.labels {
		data.WriteString(label)
		for c := range d.columns {
			fmt.Fprintf(&data, ",%g", d.values[c][r])
		}
		data.WriteString("\n")
	}
	return core.NewDatasetHash([]byte(data.String()))
}
