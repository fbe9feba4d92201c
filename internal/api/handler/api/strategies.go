// internal/api/handler/api/strategies.go
package api

import (
	"net/http"

	"github.com/newthinker/swingbot/internal/api/response"
	"github.com/newthinker/swingbot/internal/strategy"
)

// StrategyCatalog defines the interface needed from strategy.Engine.
type StrategyCatalog interface {
	GetAll() []strategy.Info
}

// StrategiesHandler lists the registered strategies.
type StrategiesHandler struct {
	catalog StrategyCatalog
}

// NewStrategiesHandler creates a new strategies handler.
func NewStrategiesHandler(catalog StrategyCatalog) *StrategiesHandler {
	return &StrategiesHandler{catalog: catalog}
}

// List handles GET /api/v1/strategies
func (h *StrategiesHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := h.catalog.GetAll()
	response.JSON(w, http.StatusOK, map[string]any{
		"strategies": infos,
		"count":      len(infos),
	})
}
