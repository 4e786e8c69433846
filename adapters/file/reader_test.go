package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp CSV: %v", err)
	}
	return path
}

// TestDataReader_LoadCSV verifies a well-formed CSV loads into a dataset with
// the outcome excluded from the predictors.
func TestDataReader_LoadCSV(t *testing.T) {
	path := writeTempCSV(t, `area,perimeter,class
10.5,2.0,well
11.0,2.2,well
3.1,0.9,poor
2.8,0.8,poor
`)

	reader := NewDataReader(path, Options{Outcome: "class", Positive: "well"})
	d, dropped, err := reader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if dropped != 0 {
		t.Errorf("Expected no dropped rows, got %d", dropped)
	}
	if d.NumRows() != 4 {
		t.Errorf("Expected 4 rows, got %d", d.NumRows())
	}
	if d.NumColumns() != 2 {
		t.Errorf("Expected 2 predictor columns, got %d", d.NumColumns())
	}
	for _, col := range d.Columns() {
		if string(col) == "class" {
			t.Error("Outcome column leaked into the predictors")
		}
	}
	if !d.IsPositive(0) || d.IsPositive(2) {
		t.Error("Positive class assignment is wrong")
	}
	if d.Value(0, 0) != 10.5 {
		t.Errorf("Expected area[0]=10.5, got %f", d.Value(0, 0))
	}
}

// TestDataReader_MissingFile verifies a helpful error for absent paths.
func TestDataReader_MissingFile(t *testing.T) {
	reader := NewDataReader("/nonexistent/data.csv", Options{Outcome: "class"})
	if _, _, err := reader.Load(context.Background()); err == nil {
		t.Error("Expected error for missing file")
	}
}

// TestBuildDataset_DropsBadRows verifies rows with unparseable cells or empty
// outcome labels are dropped and counted, not fatal.
func TestBuildDataset_DropsBadRows(t *testing.T) {
	rows := [][]string{
		{"f1", "f2", "class"},
		{"1.0", "2.0", "a"},
		{"oops", "2.0", "a"}, // unparseable predictor
		{"1.0", "2.0", ""},   // missing outcome
		{"1.0", "", "b"},     // empty predictor cell
		{"3.0", "4.0", "b"},
		{"5.0"}, // ragged row
	}

	d, dropped, err := BuildDataset("test", rows, Options{Outcome: "class", Positive: "a"})
	if err != nil {
		t.Fatalf("BuildDataset failed: %v", err)
	}
	if dropped != 4 {
		t.Errorf("Expected 4 dropped rows, got %d", dropped)
	}
	if d.NumRows() != 2 {
		t.Errorf("Expected 2 surviving rows, got %d", d.NumRows())
	}
}

// TestBuildDataset_ExplicitPredictors verifies predictor selection by name.
func TestBuildDataset_ExplicitPredictors(t *testing.T) {
	rows := [][]string{
		{"f1", "f2", "f3", "class"},
		{"1", "2", "3", "a"},
		{"4", "5", "6", "b"},
	}

	d, _, err := BuildDataset("test", rows, Options{
		Outcome:    "class",
		Predictors: []string{"f1", "f3"},
	})
	if err != nil {
		t.Fatalf("BuildDataset failed: %v", err)
	}
	if d.NumColumns() != 2 {
		t.Fatalf("Expected 2 columns, got %d", d.NumColumns())
	}
	if d.Value(1, 0) != 3 {
		t.Errorf("Expected f3[0]=3, got %f", d.Value(1, 0))
	}
}

// TestBuildDataset_DefaultPositive verifies the first label seen becomes the
// positive class when none is named.
func TestBuildDataset_DefaultPositive(t *testing.T) {
	rows := [][]string{
		{"f1", "class"},
		{"1", "b"},
		{"2", "a"},
	}

	d, _, err := BuildDataset("test", rows, Options{Outcome: "class"})
	if err != nil {
		t.Fatalf("BuildDataset failed: %v", err)
	}
	if d.Positive() != "b" {
		t.Errorf("Expected first label %q as default positive, got %q", "b", d.Positive())
	}
}

// TestBuildDataset_Validation verifies structural errors are fatal.
func TestBuildDataset_Validation(t *testing.T) {
	if _, _, err := BuildDataset("t", [][]string{{"f1", "class"}}, Options{Outcome: "class"}); err == nil {
		t.Error("Expected error for a header-only source")
	}

	rows := [][]string{
		{"f1", "class"},
		{"1", "a"},
		{"2", "b"},
	}
	if _, _, err := BuildDataset("t", rows, Options{}); err == nil {
		t.Error("Expected error for missing outcome option")
	}
	if _, _, err := BuildDataset("t", rows, Options{Outcome: "label"}); err == nil {
		t.Error("Expected error for outcome absent from header")
	}
	if _, _, err := BuildDataset("t", rows, Options{Outcome: "class", Predictors: []string{"f9"}}); err == nil {
		t.Error("Expected error for unknown predictor")
	}
}
