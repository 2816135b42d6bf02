// Package coordinator spawns the worker fleet, drives the pattern
// scheduler, redistributes concurrency on worker failure, and owns
// the run's TestResult end to end including signal-driven shutdown.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/loadforge/loadforge/internal/aggregator"
	"github.com/loadforge/loadforge/internal/apperrors"
	"github.com/loadforge/loadforge/internal/logger"
	"github.com/loadforge/loadforge/internal/metricmodel"
	"github.com/loadforge/loadforge/internal/pattern"
	"github.com/loadforge/loadforge/internal/schedule"
	"github.com/loadforge/loadforge/internal/scenario"
	"github.com/loadforge/loadforge/internal/worker"
	"go.uber.org/zap"
)

const minWorkers = 1

// Config holds the coordinator's tunables. The caller fills it in
// directly (the API handler uses fixed defaults); it is not read from
// internal/config.
type Config struct {
	Workers             int
	TickInterval        time.Duration
	GracePeriod         time.Duration
	RequestTimeout      time.Duration
	HeartbeatInterval   time.Duration
	HeartbeatStale      time.Duration
	WorkerRateLimit     float64 // 0 disables
	WorkerBurst         float64
}

// Coordinator owns one run's worker fleet, scheduler, and aggregator.
type Coordinator struct {
	cfg Config
	log *zap.Logger
}

// New builds a coordinator with the given configuration.
func New(cfg Config) *Coordinator {
	if cfg.Workers < minWorkers {
		cfg.Workers = minWorkers
	}
	return &Coordinator{cfg: cfg, log: logger.With(zap.String("component", "coordinator"))}
}

type liveWorker struct {
	id       uint8
	w        *worker.Worker
	commands chan int
	failed   bool
	restarts int
}

// Run drives one complete test: spawns the worker fleet, runs the
// scheduler against p for duration, redistributes on worker failure,
// and returns the completed TestResult. onSnapshot is invoked once
// per tick from the aggregator's goroutine; it must not block. ctx
// cancellation and SIGINT/SIGTERM are both treated as a clean-shutdown
// request; a second identical signal forces immediate termination.
func (c *Coordinator) Run(ctx context.Context, desc *scenario.Descriptor, p pattern.Pattern, duration time.Duration, onSnapshot func(metricmodel.MetricSnapshot)) (*metricmodel.TestResult, error) {
	result := &metricmodel.TestResult{
		ScenarioName: desc.Name,
		PatternDesc:  p.Describe(),
		StartedAt:    time.Now(),
	}

	workers := make([]*liveWorker, c.cfg.Workers)
	forceCtx, forceCancel := context.WithCancel(context.Background())
	defer forceCancel()

	for i := 0; i < c.cfg.Workers; i++ {
		id := uint8(i)
		w := worker.New(id, desc, c.cfg.RequestTimeout, c.cfg.WorkerRateLimit, c.cfg.WorkerBurst)
		lw := &liveWorker{id: id, w: w, commands: make(chan int, 1)}
		workers[i] = lw
		go w.Run(forceCtx, lw.commands)
	}

	agg := aggregator.New()
	agg.SetSources(sourcesOf(workers))

	var mu sync.Mutex // guards workers' failed/restarts bookkeeping and redistribution
	var target int64

	aggCtx, aggCancel := context.WithCancel(context.Background())
	var aggWG sync.WaitGroup
	aggWG.Add(1)
	go func() {
		defer aggWG.Done()
		agg.Run(aggCtx, c.cfg.TickInterval, func() int { return int(atomic.LoadInt64(&target)) }, onSnapshot, result)
	}()

	redistribute := func(t int) {
		atomic.StoreInt64(&target, int64(t))
		mu.Lock()
		alive := aliveWorkers(workers)
		mu.Unlock()
		n := len(alive)
		if n == 0 {
			return
		}
		for pos, lw := range alive {
			share := t/n + extra(pos, t, n)
			select {
			case lw.commands <- share:
			default:
				// a slow worker still processing the previous command;
				// drop the oldest and enqueue the latest target.
				select {
				case <-lw.commands:
				default:
				}
				lw.commands <- share
			}
		}
	}

	var aborted atomic.Bool
	var abortReason string

	markFailed := func(lw *liveWorker) {
		mu.Lock()
		if lw.failed {
			mu.Unlock()
			return
		}
		lw.failed = true
		restarts := lw.restarts
		mu.Unlock()

		c.log.Warn("worker heartbeat stale, declaring failed", zap.Uint8("worker_id", lw.id))
		result.AppendEvent("worker_failure", fmt.Sprintf("worker %d heartbeat stale; excluded and redistributed", lw.id), time.Now())

		if restarts < 1 {
			mu.Lock()
			lw.failed = false
			lw.restarts++
			mu.Unlock()
			replacement := worker.New(lw.id, desc, c.cfg.RequestTimeout, c.cfg.WorkerRateLimit, c.cfg.WorkerBurst)
			mu.Lock()
			lw.w = replacement
			mu.Unlock()
			go replacement.Run(forceCtx, lw.commands)
			result.AppendEvent("worker_restarted", fmt.Sprintf("worker %d restarted (1 restart budget consumed)", lw.id), time.Now())
			c.log.Info("worker restarted", zap.Uint8("worker_id", lw.id))
		}

		agg.SetSources(sourcesOf(workers))

		mu.Lock()
		nAlive := len(aliveWorkers(workers))
		mu.Unlock()
		if nAlive < minWorkers {
			abortReason = "fewer than the minimum number of workers remain healthy"
			aborted.Store(true)
			return
		}
		redistribute(int(atomic.LoadInt64(&target)))
	}

	healthStop := make(chan struct{})
	var healthWG sync.WaitGroup
	healthWG.Add(1)
	go func() {
		defer healthWG.Done()
		interval := c.cfg.HeartbeatInterval
		if interval <= 0 {
			interval = heartbeatCheckInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-healthStop:
				return
			case <-ticker.C:
				now := time.Now().UnixNano()
				mu.Lock()
				snapshot := append([]*liveWorker(nil), workers...)
				mu.Unlock()
				for _, lw := range snapshot {
					mu.Lock()
					already := lw.failed
					mu.Unlock()
					if already {
						continue
					}
					last := lw.w.RingBuffer().LastHeartbeat()
					if last == 0 {
						continue // hasn't had a chance to beat yet
					}
					age := time.Duration(now - last)
					if age > c.cfg.HeartbeatStale {
						markFailed(lw)
					}
				}
			}
		}
	}()

	stopRequested := make(chan struct{})
	var stopOnce sync.Once
	requestStop := func() { stopOnce.Do(func() { close(stopRequested) }) }

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			c.log.Info("shutdown signal received")
			requestStop()
		case <-stopRequested:
			return
		}
		select {
		case <-sigCh:
			c.log.Warn("second shutdown signal received, forcing immediate exit")
			os.Exit(1)
		case <-stopRequested:
		}
	}()

	schedCtx, schedCancel := context.WithCancel(ctx)
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		schedule.New().Run(schedCtx, p, duration, c.cfg.TickInterval, func(t schedule.Tick) {
			redistribute(t.Target)
		})
	}()

	select {
	case <-schedDone:
	case <-ctx.Done():
	case <-stopRequested:
	}
	schedCancel()
	<-schedDone
	requestStop()

	close(healthStop)
	healthWG.Wait()

	mu.Lock()
	toStop := aliveWorkers(workers)
	mu.Unlock()
	for _, lw := range toStop {
		lw.w.Stop()
	}

	drained := make(chan struct{})
	go func() {
		for _, lw := range toStop {
			lw.w.Wait()
		}
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(c.cfg.GracePeriod):
		c.log.Warn("grace period elapsed, forcing in-flight requests to abort")
	}
	forceCancel()
	<-drained

	aggCancel()
	aggWG.Wait()

	result.EndedAt = time.Now()
	result.Duration = result.EndedAt.Sub(result.StartedAt)

	if aborted.Load() {
		result.FailureReason = abortReason
		return result, apperrors.New(apperrors.Fatal, abortReason)
	}
	return result, nil
}

const heartbeatCheckInterval = time.Second

func extra(pos, target, n int) int {
	if n == 0 {
		return 0
	}
	if pos < target%n {
		return 1
	}
	return 0
}

func aliveWorkers(workers []*liveWorker) []*liveWorker {
	out := make([]*liveWorker, 0, len(workers))
	for _, lw := range workers {
		if !lw.failed {
			out = append(out, lw)
		}
	}
	return out
}

func sourcesOf(workers []*liveWorker) []aggregator.Source {
	out := make([]aggregator.Source, 0, len(workers))
	for _, lw := range workers {
		if !lw.failed {
			out = append(out, lw.w)
		}
	}
	return out
}
