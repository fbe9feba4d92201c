// internal/api/handler/api/strategies_test.go
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/swingbot/internal/api/response"
	"github.com/newthinker/swingbot/internal/strategy/catalog"
)

func TestStrategiesHandler_List(t *testing.T) {
	handler := NewStrategiesHandler(catalog.Default())

	req := httptest.NewRequest("GET", "/api/v1/strategies", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	data := resp.Data.(map[string]any)
	strategies := data["strategies"].([]any)
	if len(strategies) != int(data["count"].(float64)) || len(strategies) < 7 {
		t.Fatalf("expected the full catalog, got %d", len(strategies))
	}

	first := strategies[0].(map[string]any)
	if first["name"] != "buy_hold" {
		t.Errorf("expected sorted names starting with buy_hold, got %v", first["name"])
	}
	for _, s := range strategies {
		info := s.(map[string]any)
		if info["name"] == "rebalance" && info["portfolio"] != true {
			t.Error("expected rebalance to be a portfolio strategy")
		}
	}
}
