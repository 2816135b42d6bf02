// Package schedule walks a load pattern and emits (elapsed, target)
// commands to the coordinator at a fixed tick cadence, sleeping to
// monotonic deadlines so drift never exceeds one tick interval.
package schedule

import (
	"context"
	"time"

	"github.com/loadforge/loadforge/internal/logger"
	"github.com/loadforge/loadforge/internal/pattern"
	"go.uber.org/zap"
)

// Tick is one scheduler emission: the target concurrency for elapsed
// time t, delivered no later than one tick interval after t.
type Tick struct {
	Elapsed time.Duration
	Target  int
}

// Scheduler evaluates a pattern at a fixed cadence and delivers ticks
// to a caller-supplied sink.
type Scheduler struct {
	log *zap.Logger
}

// New creates a scheduler.
func New() *Scheduler {
	return &Scheduler{log: logger.With(zap.String("component", "scheduler"))}
}

// Run evaluates p from t=0 to duration at tickInterval cadence,
// calling emit(tick) for each point (including t=duration) until
// either the sequence completes or ctx is cancelled. Deadlines are
// computed from a fixed start time rather than accumulated sleeps, so
// a late tick does not push every later tick back by the same amount.
// A tick delivered more than 2x late only logs a warning; it never
// triggers a catch-up burst.
func (s *Scheduler) Run(ctx context.Context, p pattern.Pattern, duration, tickInterval time.Duration, emit func(Tick)) {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	ticks := pattern.Sequence(p, duration, tickInterval)
	start := time.Now()

	for i, t := range ticks {
		deadline := start.Add(t.Elapsed)
		if i > 0 {
			wait := time.Until(deadline)
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			} else if -wait > 2*tickInterval {
				s.log.Warn("scheduler tick running behind",
					zap.Duration("elapsed", t.Elapsed), zap.Duration("behind_by", -wait))
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		emit(Tick{Elapsed: t.Elapsed, Target: t.Target})
	}
}
