package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"gridfit/adapters/file"
	"gridfit/domain/dataset"
	"gridfit/internal/errors"
)

// Source describes a JSON endpoint serving tabular records.
type Source struct {
	URL         string
	RecordsPath string // gjson path to the record array, default "data"
	CursorPath  string // gjson path to the next-page cursor, empty disables pagination
	CursorParam string // query parameter carrying the cursor, default "cursor"
	MaxPages    int    // pagination bound, default 1
	Timeout     time.Duration
}

// Reader fetches a dataset from a remote JSON endpoint. Backend failures are
// propagated unmodified to the caller, not masked.
type Reader struct {
	source     Source
	opts       file.Options
	httpClient *http.Client
}

// NewReader creates a remote dataset reader.
func NewReader(source Source, opts file.Options) *Reader {
	if source.RecordsPath == "" {
		source.RecordsPath = "data"
	}
	if source.CursorParam == "" {
		source.CursorParam = "cursor"
	}
	if source.MaxPages < 1 {
		source.MaxPages = 1
	}
	timeout := source.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Reader{
		source:     source,
		opts:       opts,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Load fetches every page and assembles the records into a dataset. The
// header is the union of outcome and predictor fields; records missing a
// field are dropped during build like any other incomplete row.
func (r *Reader) Load(ctx context.Context) (*dataset.Dataset, int, error) {
	fields := append([]string{r.opts.Outcome}, r.opts.Predictors...)
	if len(r.opts.Predictors) == 0 {
		return nil, 0, errors.InvalidInput("remote source requires an explicit predictor list")
	}

	rows := [][]string{fields}
	cursor := ""
	for page := 0; page < r.source.MaxPages; page++ {
		body, err := r.fetchPage(ctx, cursor)
		if err != nil {
			return nil, 0, err
		}

		records := gjson.GetBytes(body, r.source.RecordsPath)
		if !records.Exists() || !records.IsArray() {
			return nil, 0, errors.ExternalServiceError("remote dataset",
				fmt.Errorf("no record array at path %q", r.source.RecordsPath))
		}
		records.ForEach(func(_, record gjson.Result) bool {
			row := make([]string, len(fields))
			for i, field := range fields {
				row[i] = record.Get(field).String()
			}
			rows = append(rows, row)
			return true
		})

		if r.source.CursorPath == "" {
			break
		}
		cursor = gjson.GetBytes(body, r.source.CursorPath).String()
		if cursor == "" {
			break
		}
	}

	name := r.source.URL
	if u, err := url.Parse(r.source.URL); err == nil && u.Host != "" {
		name = u.Host + u.Path
	}
	return file.BuildDataset(name, rows, r.opts)
}

func (r *Reader) fetchPage(ctx context.Context, cursor string) ([]byte, error) {
	target := r.source.URL
	if cursor != "" {
		u, err := url.Parse(target)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("invalid remote URL %q", target))
		}
		q := u.Query()
		q.Set(r.source.CursorParam, cursor)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("remote dataset", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.ExternalServiceError("remote dataset",
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, target))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalServiceError("remote dataset", err)
	}
	return body, nil
}
