package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	DatasetHash Hash
	GridHash    Hash
	FoldHash    Hash
)

func NewDatasetHash(data []byte) DatasetHash { return DatasetHash(NewHash(data)) }
func NewGridHash(data []byte) GridHash       { return GridHash(NewHash(data)) }
func NewFoldHash(data []byte) FoldHash       { return FoldHash(NewHash(data)) }

func (h DatasetHash) String() string { return Hash(h).String() }
func (h GridHash) String() string    { return Hash(h).String() }
func (h FoldHash) String() string    { return Hash(h).String() }

// ComputeGridHash produces a deterministic fingerprint for a configuration grid.
// Parameter maps are serialized in sorted key order so that two identical grids
// always hash the same regardless of map iteration order.
func ComputeGridHash(configs []map[string]float64) GridHash {
	var data strings.Builder
	for _, params := range configs {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			data.WriteString(k)
			data.WriteString(fmt.Sprintf("=%g;", params[k]))
		}
		data.WriteString("|")
	}
	return NewGridHash([]byte(data.String()))
}

// ComputeFoldHash produces a deterministic fingerprint for a fold assignment.
func ComputeFoldHash(assignments [][]int) FoldHash {
	var data strings.Builder
	for _, fold := range assignments {
		for _, idx := range fold {
			data.WriteString(fmt.Sprintf("%d,", idx))
		}
		data.WriteString("|")
	}
	return NewFoldHash([]byte(data.String()))
}
