// internal/api/handler/api/backtest.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/swingbot/internal/api/job"
	"github.com/newthinker/swingbot/internal/api/response"
	"github.com/newthinker/swingbot/internal/app"
	"github.com/newthinker/swingbot/internal/backtest"
	"github.com/newthinker/swingbot/internal/core"
)

const backtestTimeout = 5 * time.Minute

// Job types
const (
	JobBacktest = "backtest"
	JobSweep    = "sweep"
)

// BacktestRequest is the request body for starting a backtest. A non-empty
// Grid turns the job into a parameter sweep.
type BacktestRequest struct {
	Strategy  string         `json:"strategy"`
	Symbols   []string       `json:"symbols"`
	Start     string         `json:"start"`
	End       string         `json:"end,omitempty"`
	Source    string         `json:"source,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	Grid      backtest.Grid  `json:"grid,omitempty"`
	Split     bool           `json:"split,omitempty"`
	Benchmark bool           `json:"benchmark,omitempty"`
	Archive   bool           `json:"archive,omitempty"`
}

// RunRequest converts the body to an app request
func (b BacktestRequest) RunRequest() (app.RunRequest, error) {
	req := app.RunRequest{
		Strategy:  b.Strategy,
		Symbols:   b.Symbols,
		Source:    b.Source,
		Params:    b.Params,
		Split:     b.Split,
		Benchmark: b.Benchmark,
		Archive:   b.Archive,
	}

	var err error
	if req.Start, err = time.Parse(time.DateOnly, b.Start); err != nil {
		return req, core.Errorf(core.ErrConfigInvalid, "start %q: want YYYY-MM-DD", b.Start)
	}
	if b.End != "" {
		if req.End, err = time.Parse(time.DateOnly, b.End); err != nil {
			return req, core.Errorf(core.ErrConfigInvalid, "end %q: want YYYY-MM-DD", b.End)
		}
	}
	return req, req.Validate()
}

// BacktestApp defines the interface needed from app.App.
type BacktestApp interface {
	Run(ctx context.Context, req app.RunRequest) (*backtest.Result, error)
	Sweep(ctx context.Context, req app.RunRequest, grid backtest.Grid) ([]backtest.SweepResult, error)
	HasStrategy(name string) bool
}

// JobGauge receives the number of active jobs per type
type JobGauge interface {
	SetJobsActive(jobType string, count int)
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobStore *job.Store
	app      BacktestApp
	gauge    JobGauge
	logger   *zap.Logger
	timeout  time.Duration
}

// NewBacktestHandler creates a new backtest handler. gauge may be nil.
func NewBacktestHandler(jobStore *job.Store, a BacktestApp, gauge JobGauge, logger ...*zap.Logger) *BacktestHandler {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &BacktestHandler{
		jobStore: jobStore,
		app:      a,
		gauge:    gauge,
		logger:   l,
		timeout:  backtestTimeout,
	}
}

// Create starts a new backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	req, err := body.RunRequest()
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	if !h.app.HasStrategy(req.Strategy) {
		response.Error(w, http.StatusBadRequest,
			core.Errorf(core.ErrStrategyNotFound, "%q", req.Strategy))
		return
	}

	jobType := JobBacktest
	if len(body.Grid) > 0 {
		jobType = JobSweep
	}
	j := h.jobStore.Create(jobType)
	h.updateGauge(jobType)

	go h.runJob(j.ID, jobType, req, body.Grid)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"type":   jobType,
		"status": j.Status,
	})
}

// runJob executes the backtest and updates job status.
func (h *BacktestHandler) runJob(jobID, jobType string, req app.RunRequest, grid backtest.Grid) {
	defer h.updateGauge(jobType)

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})
	h.updateGauge(jobType)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var (
		result any
		err    error
	)
	if jobType == JobSweep {
		result, err = h.app.Sweep(ctx, req, grid)
	} else {
		result, err = h.app.Run(ctx, req)
	}

	if err != nil {
		h.logger.Warn("backtest job failed",
			zap.String("job_id", jobID),
			zap.String("strategy", req.Strategy),
			zap.Error(err),
		)
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = asCoreError(err)
		})
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = result
	})
}

// GetStatus returns the status of a backtest job.
func (h *BacktestHandler) GetStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	j, err := h.jobStore.Get(jobID)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"type":     j.Type,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = response.Detail(j.Error)
	}

	response.JSON(w, http.StatusOK, resp)
}

// List returns every live job without results.
func (h *BacktestHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobStore.List()
	out := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, map[string]any{
			"job_id":     j.ID,
			"type":       j.Type,
			"status":     j.Status,
			"created_at": j.CreatedAt,
			"updated_at": j.UpdatedAt,
		})
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *BacktestHandler) updateGauge(jobType string) {
	if h.gauge != nil {
		h.gauge.SetJobsActive(jobType, h.jobStore.Active(jobType))
	}
}

func asCoreError(err error) *core.Error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.Errorf(core.ErrStrategyFailed, "backtest timed out")
	}
	return core.WrapError(core.ErrStrategyFailed, err)
}
