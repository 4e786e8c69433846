package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gridfit/domain/core"
	"gridfit/domain/dataset"
	"gridfit/internal/errors"
)

// Options names the outcome column and positive class of a tabular source.
// When Predictors is empty, every other column is treated as a predictor.
type Options struct {
	Outcome    string
	Positive   string
	Predictors []string
	Sheet      string // Excel only; defaults to Sheet1
}

// DataReader loads datasets from CSV and Excel files.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	opts     Options
}

// NewDataReader creates a reader for the given path; the file type is
// inferred from the extension.
func NewDataReader(filePath string, opts Options) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, opts: opts}
}

// Load reads and parses the file into a dataset. Rows with any unparseable or
// empty predictor cell, or an empty outcome label, are dropped; the dropped
// count is returned.
func (r *DataReader) Load(_ context.Context) (*dataset.Dataset, int, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, 0, errors.InvalidInput(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, 0, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, 0, err
	}

	name := strings.TrimSuffix(filepath.Base(r.filePath), filepath.Ext(r.filePath))
	return BuildDataset(name, rows, r.opts)
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file %s", r.filePath)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are dropped during build
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV")
	}
	return rows, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := r.opts.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	return rows, nil
}

// BuildDataset converts a header row plus data rows into a domain dataset.
// Shared by the file and remote adapters.
func BuildDataset(name string, rows [][]string, opts Options) (*dataset.Dataset, int, error) {
	if len(rows) < 2 {
		return nil, 0, errors.InvalidInput("source must have a header row and at least one data row")
	}
	if strings.TrimSpace(opts.Outcome) == "" {
		return nil, 0, errors.InvalidInput("outcome column is required")
	}

	header := rows[0]
	colIndex := make(map[string]int, len(header))
	for i, h := range header {
		colIndex[strings.TrimSpace(h)] = i
	}

	outcomeCol, ok := colIndex[opts.Outcome]
	if !ok {
		return nil, 0, errors.InvalidInput(fmt.Sprintf("outcome column %q not found in header", opts.Outcome))
	}

	predictors := opts.Predictors
	if len(predictors) == 0 {
		for _, h := range header {
			h = strings.TrimSpace(h)
			if h != "" && h != opts.Outcome {
				predictors = append(predictors, h)
			}
		}
	}
	columns := make([]core.ColumnKey, len(predictors))
	predictorCols := make([]int, len(predictors))
	for i, p := range predictors {
		idx, ok := colIndex[p]
		if !ok {
			return nil, 0, errors.InvalidInput(fmt.Sprintf("predictor column %q not found in header", p))
		}
		columns[i] = core.ColumnKey(p)
		predictorCols[i] = idx
	}

	values := make([][]float64, len(predictors))
	var labels []string
	dropped := 0

	row := make([]float64, len(predictors))
	for _, record := range rows[1:] {
		label := ""
		if outcomeCol < len(record) {
			label = strings.TrimSpace(record[outcomeCol])
		}
		valid := label != ""
		for i, idx := range predictorCols {
			row[i] = math.NaN()
			if idx < len(record) {
				if v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64); err == nil {
					row[i] = v
				}
			}
			if math.IsNaN(row[i]) {
				valid = false
			}
		}
		if !valid {
			dropped++
			continue
		}
		for i := range predictors {
			values[i] = append(values[i], row[i])
		}
		labels = append(labels, label)
	}

	positive := strings.TrimSpace(opts.Positive)
	if positive == "" && len(labels) > 0 {
		// Default positive class: first label seen in row order.
		positive = labels[0]
	}

	d, err := dataset.New(name, columns, core.ColumnKey(opts.Outcome), positive, values, labels)
	if err != nil {
		return nil, dropped, errors.Wrap(err, "failed to build dataset")
	}
	return d, dropped, nil
}
