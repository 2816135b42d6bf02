package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loadforge/loadforge/internal/logger"
	"github.com/loadforge/loadforge/internal/pattern"
	"github.com/loadforge/loadforge/internal/runservice"
	"go.uber.org/zap"
)

var errUnknownPattern = errors.New("unknown pattern kind")

// TestRunHandler handles run lifecycle endpoints.
type TestRunHandler struct {
	registry *runservice.Registry
}

// NewTestRunHandler creates a new run handler.
func NewTestRunHandler(registry *runservice.Registry) *TestRunHandler {
	return &TestRunHandler{registry: registry}
}

// startRunRequest is the wire shape of POST /api/v1/runs/start.
type startRunRequest struct {
	ScenarioPath string `json:"scenario_path" binding:"required"`
	DurationSec  int    `json:"duration_sec" binding:"required"`
	Pattern      string `json:"pattern" binding:"required"` // constant, ramp, step, spike, diurnal
	From         int    `json:"from"`
	To           int    `json:"to"`
	StepSize     int    `json:"step_size"`
	StepHoldSec  int    `json:"step_hold_sec"`
	SpikeBase    int    `json:"spike_base"`
	SpikePeak    int    `json:"spike_peak"`
	SpikeAtSec   int    `json:"spike_at_sec"`
	SpikeHoldSec int    `json:"spike_hold_sec"`
	Peak         int    `json:"peak"`
	Trough       int    `json:"trough"`
	Workers      int    `json:"workers"`
}

func buildPattern(req startRunRequest) (pattern.Pattern, error) {
	switch req.Pattern {
	case "constant":
		return pattern.Constant(req.To), nil
	case "ramp":
		return pattern.Ramp(req.From, req.To, time.Duration(req.DurationSec)*time.Second), nil
	case "step":
		steps := req.DurationSec / maxInt(req.StepHoldSec, 1)
		return pattern.Step(req.From, req.StepSize, time.Duration(req.StepHoldSec)*time.Second, steps), nil
	case "spike":
		return pattern.Spike(req.SpikeBase, req.SpikePeak, time.Duration(req.SpikeHoldSec)*time.Second), nil
	case "diurnal":
		return pattern.Diurnal(req.Trough, req.Peak, time.Duration(req.DurationSec)*time.Second), nil
	default:
		return pattern.Pattern{}, errUnknownPattern
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// StartRun handles POST /api/v1/runs/start
func (h *TestRunHandler) StartRun(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("invalid start-run request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := buildPattern(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workers := req.Workers
	if workers <= 0 {
		workers = 1
	}

	run, err := h.registry.Start(runservice.StartRequest{
		ScenarioPath: req.ScenarioPath,
		Pattern:      p,
		Duration:     time.Duration(req.DurationSec) * time.Second,
		Coordinator:  defaultCoordinatorConfig(workers),
	})
	if err != nil {
		logger.Log.Error("failed to start run", zap.Error(err))
		MapErrorToHTTP(c, err)
		return
	}

	c.JSON(http.StatusCreated, run.View())
}

// StopRun handles POST /api/v1/runs/:id/stop
func (h *TestRunHandler) StopRun(c *gin.Context) {
	id := c.Param("id")
	if err := h.registry.Stop(id); err != nil {
		logger.Log.Warn("failed to stop run", zap.String("run_id", id), zap.Error(err))
		MapErrorToHTTP(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stop requested"})
}

// ListRuns handles GET /api/v1/runs
func (h *TestRunHandler) ListRuns(c *gin.Context) {
	runs := h.registry.List()
	views := make([]runservice.Snapshot, 0, len(runs))
	for _, run := range runs {
		views = append(views, run.View())
	}
	c.JSON(http.StatusOK, gin.H{"runs": views})
}

// GetRun handles GET /api/v1/runs/:id
func (h *TestRunHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	run, err := h.registry.Get(id)
	if err != nil {
		MapErrorToHTTP(c, err)
		return
	}
	c.JSON(http.StatusOK, run.View())
}

// GetRunResult handles GET /api/v1/runs/:id/result
func (h *TestRunHandler) GetRunResult(c *gin.Context) {
	id := c.Param("id")
	run, err := h.registry.Get(id)
	if err != nil {
		MapErrorToHTTP(c, err)
		return
	}
	result := run.Result()
	if result == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "run has not finished"})
		return
	}
	c.JSON(http.StatusOK, result)
}
