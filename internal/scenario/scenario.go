// Package scenario defines the fully-resolved scenario descriptor a
// worker's virtual users execute: named, weighted tasks, optional
// setup/teardown hooks, and a think-time range.
package scenario

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/loadforge/loadforge/internal/httpclient"
)

// Task is one named, weighted unit of work a virtual user may run.
// Run receives the HTTP client capability injected by the worker.
type Task struct {
	Name   string
	Weight int
	Run    func(ctx context.Context, client *httpclient.Client) error
}

// Descriptor is the immutable, fully-resolved scenario a worker
// consumes. It is resolved once per run and the same Descriptor is
// passed to every worker goroutine.
type Descriptor struct {
	Name           string
	BaseURL        string
	DefaultHeaders map[string]string
	Tasks          []Task
	Setup          func(ctx context.Context) error
	Teardown       func(ctx context.Context) error
	ThinkMin       time.Duration
	ThinkMax       time.Duration

	selector *weightedSelector
}

// New validates tasks and weights and builds the descriptor's
// weighted-selection index. Weight-zero tasks are excluded per the
// external-interface contract; at least one positively-weighted task
// must remain.
func New(name, baseURL string, headers map[string]string, tasks []Task, setup, teardown func(ctx context.Context) error, thinkMin, thinkMax time.Duration) (*Descriptor, error) {
	kept := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Weight <= 0 {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("scenario %q: no positively-weighted tasks", name)
	}
	if thinkMin < 0 || thinkMax < thinkMin {
		return nil, fmt.Errorf("scenario %q: invalid think-time range [%s, %s]", name, thinkMin, thinkMax)
	}

	d := &Descriptor{
		Name:           name,
		BaseURL:        baseURL,
		DefaultHeaders: headers,
		Tasks:          kept,
		Setup:          setup,
		Teardown:       teardown,
		ThinkMin:       thinkMin,
		ThinkMax:       thinkMax,
	}
	d.selector = newWeightedSelector(kept)
	return d, nil
}

// PickTask returns a task chosen by weighted random selection.
func (d *Descriptor) PickTask(r *rand.Rand) Task {
	return d.Tasks[d.selector.pick(r)]
}

// ThinkTime samples a sleep duration uniformly from [ThinkMin, ThinkMax].
func (d *Descriptor) ThinkTime(r *rand.Rand) time.Duration {
	if d.ThinkMax <= d.ThinkMin {
		return d.ThinkMin
	}
	span := d.ThinkMax - d.ThinkMin
	return d.ThinkMin + time.Duration(r.Int63n(int64(span)))
}

// weightedSelector performs inverse-CDF sampling over a precomputed
// cumulative weight array.
type weightedSelector struct {
	cumulative []int
	total      int
}

func newWeightedSelector(tasks []Task) *weightedSelector {
	cum := make([]int, len(tasks))
	sum := 0
	for i, t := range tasks {
		sum += t.Weight
		cum[i] = sum
	}
	return &weightedSelector{cumulative: cum, total: sum}
}

func (s *weightedSelector) pick(r *rand.Rand) int {
	target := r.Intn(s.total) + 1
	lo, hi := 0, len(s.cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if s.cumulative[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
