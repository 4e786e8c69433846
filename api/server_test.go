package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gridfit/domain/core"
	"gridfit/domain/selection"
)

// memoryStore is an in-memory RunStore for handler tests.
type memoryStore struct {
	reports map[core.RunID]*selection.Report
	scores  map[core.RunID][]selection.ScoreRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		reports: make(map[core.RunID]*selection.Report),
		scores:  make(map[core.RunID][]selection.ScoreRecord),
	}
}

func (m *memoryStore) SaveReport(_ context.Context, report *selection.Report, records []selection.ScoreRecord) error {
	m.reports[report.Manifest.RunID] = report
	m.scores[report.Manifest.RunID] = records
	return nil
}

func (m *memoryStore) GetReport(_ context.Context, runID core.RunID) (*selection.Report, error) {
	report, ok := m.reports[runID]
	if !ok {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return report, nil
}

func (m *memoryStore) ListRuns(_ context.Context) ([]selection.RunManifest, error) {
	manifests := make([]selection.RunManifest, 0, len(m.reports))
	for _, r := range m.reports {
		manifests = append(manifests, r.Manifest)
	}
	return manifests, nil
}

func (m *memoryStore) GetScores(_ context.Context, runID core.RunID) ([]selection.ScoreRecord, error) {
	return m.scores[runID], nil
}

func storedReport(t *testing.T, store *memoryStore) *selection.Report {
	t.Helper()
	rec, err := selection.NewScoreRecord(0, 0, 0, 0.9)
	if err != nil {
		t.Fatalf("Failed to build score record: %v", err)
	}
	report := &selection.Report{
		Manifest: selection.RunManifest{
			RunID:    core.RunID(core.NewID()),
			Metric:   selection.MetricAUC,
			GridSize: 1,
		},
		Selected: selection.Config{Family: "gbm", Params: selection.Params{"trees": 100}},
	}
	if err := store.SaveReport(context.Background(), report, []selection.ScoreRecord{rec}); err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}
	return report
}

// TestServer_Health verifies the liveness endpoint.
func TestServer_Health(t *testing.T) {
	server := NewServer(newMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

// TestServer_GetRun verifies report retrieval and the 404 path.
func TestServer_GetRun(t *testing.T) {
	store := newMemoryStore()
	report := storedReport(t, store)
	server := NewServer(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/runs/"+string(report.Manifest.RunID), nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got selection.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.Manifest.RunID != report.Manifest.RunID {
		t.Errorf("Expected run %s, got %s", report.Manifest.RunID, got.Manifest.RunID)
	}
	if got.Selected.Family != "gbm" {
		t.Errorf("Expected selected family gbm, got %s", got.Selected.Family)
	}

	req = httptest.NewRequest(http.MethodGet, "/runs/nonexistent", nil)
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown run, got %d", rec.Code)
	}
}

// TestServer_ListRuns verifies the manifests listing.
func TestServer_ListRuns(t *testing.T) {
	store := newMemoryStore()
	storedReport(t, store)
	storedReport(t, store)
	server := NewServer(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var payload struct {
		Runs []selection.RunManifest `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(payload.Runs) != 2 {
		t.Errorf("Expected 2 runs, got %d", len(payload.Runs))
	}
}

// TestServer_GetScores verifies the score-table endpoint.
func TestServer_GetScores(t *testing.T) {
	store := newMemoryStore()
	report := storedReport(t, store)
	server := NewServer(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/runs/"+string(report.Manifest.RunID)+"/scores", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var payload struct {
		RunID   core.RunID              `json:"run_id"`
		Records []selection.ScoreRecord `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(payload.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(payload.Records))
	}
	if payload.Records[0].Score != 0.9 {
		t.Errorf("Expected score 0.9, got %f", payload.Records[0].Score)
	}
}
