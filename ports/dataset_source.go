package ports

import (
	"context"

	"gridfit/domain/dataset"
)

// DatasetSource loads a labeled dataset from an external collaborator
// (file, spreadsheet, remote endpoint). Loading and parsing live behind this
// port; the selection workflow itself never touches raw bytes.
type DatasetSource interface {
	// Load reads and parses the dataset. Rows with missing predictor values
	// are dropped; the count of dropped rows is returned alongside.
	Load(ctx context.Context) (*dataset.Dataset, int, error)
}
