// internal/api/handler/api/runs_test.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/swingbot/internal/api/response"
	"github.com/newthinker/swingbot/internal/backtest"
	"github.com/newthinker/swingbot/internal/report"
	"github.com/newthinker/swingbot/internal/storage/archive"
)

func archivedRun(t *testing.T) (*report.Archive, *backtest.Result) {
	t.Helper()
	store, err := archive.NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS failed: %v", err)
	}
	a := report.NewArchive(store)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	res := &backtest.Result{
		ID:             uuid.New(),
		Strategy:       "donchian",
		Symbols:        []string{"SPY"},
		InitialCapital: 1000,
		Equity: backtest.EquityCurve{
			{Time: start, Value: 1000},
			{Time: start.AddDate(0, 0, 1), Value: 1010},
		},
	}
	res.Summary = backtest.CalculateStats(res.Equity, nil)
	if _, err := a.Save(context.Background(), res); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return a, res
}

func TestRunsHandler_List(t *testing.T) {
	a, res := archivedRun(t)
	handler := NewRunsHandler(a)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest("GET", "/api/v1/runs/donchian", nil), "donchian")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	runs := resp.Data.(map[string]any)["runs"].([]any)
	if len(runs) != 1 || runs[0] != res.ID.String() {
		t.Errorf("expected run %s, got %v", res.ID, runs)
	}
}

func TestRunsHandler_Get(t *testing.T) {
	a, res := archivedRun(t)
	handler := NewRunsHandler(a)

	w := httptest.NewRecorder()
	handler.Get(w, httptest.NewRequest("GET", "/api/v1/runs/donchian/"+res.ID.String(), nil), "donchian", res.ID.String())

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp.Data.(map[string]any)
	if data["strategy"] != "donchian" {
		t.Errorf("unexpected summary %v", data)
	}
}

func TestRunsHandler_Get_Errors(t *testing.T) {
	a, _ := archivedRun(t)
	handler := NewRunsHandler(a)

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"bad id", "not-a-uuid", http.StatusBadRequest},
		{"unknown run", uuid.NewString(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Get(w, httptest.NewRequest("GET", "/api/v1/runs/donchian/"+tt.id, nil), "donchian", tt.id)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}
