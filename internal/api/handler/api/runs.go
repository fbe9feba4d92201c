// internal/api/handler/api/runs.go
package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/newthinker/swingbot/internal/api/response"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/report"
)

// RunArchive defines the interface needed from report.Archive.
type RunArchive interface {
	Load(ctx context.Context, strategy string, id uuid.UUID) (*report.RunSummary, error)
	Runs(ctx context.Context, strategy string) ([]uuid.UUID, error)
}

// RunsHandler serves archived run summaries.
type RunsHandler struct {
	archive RunArchive
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(archive RunArchive) *RunsHandler {
	return &RunsHandler{archive: archive}
}

// List handles GET /api/v1/runs/{strategy}
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request, strategy string) {
	ids, err := h.archive.Runs(r.Context(), strategy)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"strategy": strategy,
		"runs":     ids,
	})
}

// Get handles GET /api/v1/runs/{strategy}/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request, strategy, id string) {
	runID, err := uuid.Parse(id)
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.Errorf(core.ErrConfigInvalid, "run id %q", id))
		return
	}
	summary, err := h.archive.Load(r.Context(), strategy, runID)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, summary)
}
