package core

import (
	"testing"
)

// TestNewHash tests deterministic content hashing
func TestNewHash(t *testing.T) {
	h1 := NewHash([]byte("payload"))
	h2 := NewHash([]byte("payload"))
	if h1 != h2 {
		t.Error("Identical content produced different hashes")
	}
	if h1 == NewHash([]byte("other")) {
		t.Error("Different content produced the same hash")
	}
	if len(h1.String()) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(h1.String()))
	}
}

// TestComputeGridHash tests that grid hashing is insensitive to map order
// and sensitive to values
func TestComputeGridHash(t *testing.T) {
	g1 := ComputeGridHash([]map[string]float64{
		{"trees": 100, "depth": 2},
	})
	g2 := ComputeGridHash([]map[string]float64{
		{"depth": 2, "trees": 100},
	})
	if g1 != g2 {
		t.Error("Grid hash depends on map iteration order")
	}

	g3 := ComputeGridHash([]map[string]float64{
		{"trees": 150, "depth": 2},
	})
	if g1 == g3 {
		t.Error("Different grids produced the same hash")
	}
}

// TestComputeFoldHash tests fold assignment hashing
func TestComputeFoldHash(t *testing.T) {
	f1 := ComputeFoldHash([][]int{{0, 1}, {2, 3}})
	f2 := ComputeFoldHash([][]int{{0, 1}, {2, 3}})
	if f1 != f2 {
		t.Error("Identical assignments produced different hashes")
	}
	if f1 == ComputeFoldHash([][]int{{0, 2}, {1, 3}}) {
		t.Error("Different assignments produced the same hash")
	}
}
