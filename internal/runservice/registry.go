// Package runservice tracks in-flight and completed runs for the
// control-plane API and CLI: it resolves a scenario file, starts a
// coordinator in its own goroutine, and exposes the run's live
// snapshot and final result by id.
package runservice

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loadforge/loadforge/internal/apperrors"
	"github.com/loadforge/loadforge/internal/coordinator"
	"github.com/loadforge/loadforge/internal/logger"
	"github.com/loadforge/loadforge/internal/metricmodel"
	"github.com/loadforge/loadforge/internal/pattern"
	"github.com/loadforge/loadforge/internal/scenario"
	"go.uber.org/zap"
)

// Status is a run's lifecycle state.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

var ErrNotFound = errors.New("run not found")

// StartRequest describes a run to launch.
type StartRequest struct {
	ScenarioPath string
	Pattern      pattern.Pattern
	Duration     time.Duration
	Coordinator  coordinator.Config
}

// Run is one tracked test run's mutable state.
type Run struct {
	ID           string
	ScenarioName string
	PatternDesc  string
	StartedAt    time.Time
	EndedAt      time.Time

	mu     sync.RWMutex
	status Status
	latest metricmodel.MetricSnapshot
	result *metricmodel.TestResult
	err    error
	cancel context.CancelFunc
}

func (r *Run) setLatest(s metricmodel.MetricSnapshot) {
	r.mu.Lock()
	r.latest = s
	r.mu.Unlock()
}

func (r *Run) finish(result *metricmodel.TestResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result = result
	r.err = err
	r.EndedAt = time.Now()
	if r.status == StatusStopped {
		// Stop() already recorded the terminal state; a clean ctx
		// cancellation finishing afterward must not overwrite it.
		return
	}
	if err != nil {
		r.status = StatusFailed
		return
	}
	r.status = StatusCompleted
}

// Snapshot is a read-only view of a run's current state, safe to
// serialize directly to JSON.
type Snapshot struct {
	ID           string                    `json:"id"`
	ScenarioName string                    `json:"scenario_name"`
	PatternDesc  string                    `json:"pattern"`
	Status       Status                    `json:"status"`
	StartedAt    time.Time                 `json:"started_at"`
	EndedAt      time.Time                 `json:"ended_at,omitempty"`
	Latest       metricmodel.MetricSnapshot `json:"latest"`
	FailureError string                    `json:"failure_error,omitempty"`
}

// View returns a JSON-serializable snapshot of the run's current state.
func (r *Run) View() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := Snapshot{
		ID:           r.ID,
		ScenarioName: r.ScenarioName,
		PatternDesc:  r.PatternDesc,
		Status:       r.status,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		Latest:       r.latest,
	}
	if r.err != nil {
		snap.FailureError = r.err.Error()
	}
	return snap
}

// Result returns the run's final TestResult, or nil if still running.
func (r *Run) Result() *metricmodel.TestResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result
}

// Registry tracks every run started in this process.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run
	log  *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		runs: make(map[string]*Run),
		log:  logger.With(zap.String("component", "runservice")),
	}
}

// Start resolves the scenario file, launches a coordinator against it
// in a new goroutine, and returns the tracked Run immediately; the run
// continues asynchronously.
func (reg *Registry) Start(req StartRequest) (*Run, error) {
	fileSpec, err := scenario.LoadFile(req.ScenarioPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Configuration, "loading scenario file", err)
	}
	desc, err := fileSpec.Resolve()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Configuration, "resolving scenario", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &Run{
		ID:           uuid.New().String(),
		ScenarioName: desc.Name,
		PatternDesc:  req.Pattern.Describe(),
		StartedAt:    time.Now(),
		status:       StatusRunning,
		cancel:       cancel,
	}

	reg.mu.Lock()
	reg.runs[run.ID] = run
	reg.mu.Unlock()

	go func() {
		coord := coordinator.New(req.Coordinator)
		result, runErr := coord.Run(ctx, desc, req.Pattern, req.Duration, run.setLatest)
		run.finish(result, runErr)
		reg.log.Info("run finished", zap.String("run_id", run.ID), zap.String("status", string(run.View().Status)))
	}()

	return run, nil
}

// Stop requests a clean shutdown of a running test; it is a no-op if
// the run has already finished.
func (reg *Registry) Stop(id string) error {
	run, err := reg.Get(id)
	if err != nil {
		return err
	}
	run.mu.Lock()
	if run.status == StatusRunning {
		run.status = StatusStopped
	}
	run.mu.Unlock()
	run.cancel()
	return nil
}

// Get returns a tracked run by id.
func (reg *Registry) Get(id string) (*Run, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	run, ok := reg.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return run, nil
}

// List returns every tracked run, newest first.
func (reg *Registry) List() []*Run {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Run, 0, len(reg.runs))
	for _, run := range reg.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}
