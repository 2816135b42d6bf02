// Package aggregator drains every worker's ring buffer at 1 Hz,
// records latencies into tick-local and cumulative HDR histograms,
// and emits one MetricSnapshot per tick.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loadforge/loadforge/internal/hdr"
	"github.com/loadforge/loadforge/internal/logger"
	"github.com/loadforge/loadforge/internal/metricmodel"
	"github.com/loadforge/loadforge/internal/ring"
	"go.uber.org/zap"
)

// Source is anything the aggregator can drain: a worker's ring buffer
// and label channel, plus its live virtual-user count.
type Source interface {
	RingBuffer() *ring.Buffer
	Labels() *metricmodel.LabelChannel
	ActiveUsers() int
}

type endpointState struct {
	hist     *hdr.Histogram
	requests int64
	errors   int64
	method   string
}

// Aggregator owns the cumulative and tick-local histograms and the
// endpoint label registry for one run.
type Aggregator struct {
	mu      sync.Mutex
	sources []Source

	tickGlobal *hdr.Histogram
	cumGlobal  *hdr.Histogram
	endpoints  map[uint64]*endpointState
	labels     map[uint64]string // resolved, immutable once set
	collisions uint64
	dropped    uint64

	droppedSeen map[*ring.Buffer]uint64 // last cumulative Dropped() read per buffer

	totalRequests int64
	totalErrors   int64

	startedAt time.Time
	log       *zap.Logger
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{
		tickGlobal: hdr.New(),
		cumGlobal:  hdr.New(),
		endpoints:  make(map[uint64]*endpointState),
		labels:     make(map[uint64]string),
		log:        logger.With(zap.String("component", "aggregator")),
	}
}

// SetSources replaces the set of workers the aggregator drains each
// tick. Called by the coordinator on startup and again whenever a
// worker's health status changes.
func (a *Aggregator) SetSources(sources []Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sources = sources
}

// Run ticks at interval until ctx is cancelled, draining sources,
// building a MetricSnapshot, appending it to result, and invoking
// onSnapshot. targetFn supplies the scheduler's current target
// concurrency. After ctx is done, Run performs exactly one more drain
// and snapshot before returning, so no in-flight metrics are lost on
// shutdown.
func (a *Aggregator) Run(ctx context.Context, interval time.Duration, targetFn func() int, onSnapshot func(metricmodel.MetricSnapshot), result *metricmodel.TestResult) {
	a.startedAt = time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			snap := a.tick(targetFn())
			result.AppendSnapshot(snap)
			result.Final = a.finalSnapshot(snap, targetFn())
			safeInvoke(a.log, onSnapshot, snap)
			return
		case <-ticker.C:
			snap := a.tick(targetFn())
			result.AppendSnapshot(snap)
			safeInvoke(a.log, onSnapshot, snap)
		}
	}
}

func safeInvoke(log *zap.Logger, onSnapshot func(metricmodel.MetricSnapshot), snap metricmodel.MetricSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("snapshot callback panicked", zap.Any("recovered", r))
		}
	}()
	if onSnapshot != nil {
		onSnapshot(snap)
	}
}

// tick drains every source exactly once, folds the results into the
// histograms and counters, and returns the tick's snapshot. Tick-local
// state is reset before returning.
func (a *Aggregator) tick(target int) metricmodel.MetricSnapshot {
	a.mu.Lock()
	sources := a.sources
	a.mu.Unlock()

	a.resolveLabels(sources)

	var (
		requestsThisTick int64
		errorsThisTick   int64
		activeUsers      int
		byStatus         = make(map[int]int64)
		byCategory       = make(map[string]int64)
	)

	for _, src := range sources {
		activeUsers += src.ActiveUsers()
		for _, slot := range src.RingBuffer().Drain() {
			a.recordSlot(slot, byStatus, byCategory)
			requestsThisTick++
			if slot.ErrorCategory != uint8(metricmodel.ErrorNone) {
				errorsThisTick++
			}
		}
		buf := src.RingBuffer()
		d := buf.Dropped()
		if a.droppedSeen == nil {
			a.droppedSeen = make(map[*ring.Buffer]uint64)
		}
		a.dropped += d - a.droppedSeen[buf]
		a.droppedSeen[buf] = d
	}

	a.totalRequests += requestsThisTick
	a.totalErrors += errorsThisTick

	elapsed := time.Since(a.startedAt).Seconds()
	errorRate := 0.0
	if requestsThisTick > 0 {
		errorRate = float64(errorsThisTick) / float64(requestsThisTick)
	}

	snap := metricmodel.MetricSnapshot{
		WallTime:          time.Now(),
		ElapsedSec:        elapsed,
		TargetConcurrency: target,
		ActiveUsers:       activeUsers,
		TotalRequests:     a.totalRequests,
		RequestsThisTick:  requestsThisTick,
		RequestsPerSecond: float64(requestsThisTick),
		Latencies:         latenciesFrom(a.tickGlobal),
		TotalErrors:       a.totalErrors,
		ErrorsThisTick:    errorsThisTick,
		ErrorRate:         errorRate,
		ErrorsByStatus:    byStatus,
		ErrorsByCategory:  byCategory,
		Endpoints:         a.endpointSnapshots(),
		Diagnostics: metricmodel.Diagnostics{
			DroppedRecords: a.dropped,
			CollisionCount: a.collisions,
		},
	}

	a.cumGlobal.Merge(a.tickGlobal)
	a.tickGlobal.Reset()
	for _, ep := range a.endpoints {
		ep.hist.Reset()
		ep.requests = 0
		ep.errors = 0
	}

	return snap
}

// recordSlot folds one decoded ring-buffer slot into the global and
// per-endpoint tick-local state. A panic while aggregating one
// endpoint's contribution is caught so it cannot drop the whole tick.
func (a *Aggregator) recordSlot(slot ring.Slot, byStatus map[int]int64, byCategory map[string]int64) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("panic aggregating endpoint metric, tick continues",
				zap.Uint64("name_hash", slot.NameHash), zap.Any("recovered", r))
		}
	}()

	lat := float64(slot.LatencyMs)
	a.tickGlobal.RecordValue(lat)

	ep := a.endpoints[slot.NameHash]
	if ep == nil {
		ep = &endpointState{hist: hdr.New()}
		a.endpoints[slot.NameHash] = ep
	}
	ep.hist.RecordValue(lat)
	ep.requests++

	category := metricmodel.ErrorCategory(slot.ErrorCategory)
	if category != metricmodel.ErrorNone {
		byCategory[category.String()]++
		if slot.StatusCode > 0 {
			byStatus[int(slot.StatusCode)]++
		}
		ep.errors++
	}
}

// resolveLabels drains every source's pending label announcements and
// registers newly-seen hashes, suffixing on collision.
func (a *Aggregator) resolveLabels(sources []Source) {
	for _, src := range sources {
		for _, l := range src.Labels().Drain() {
			existing, ok := a.labels[l.Hash]
			if !ok {
				a.labels[l.Hash] = l.Name
				if ep := a.endpoints[l.Hash]; ep != nil {
					ep.method = l.Method
				}
				continue
			}
			if existing != l.Name && l.Name != "" {
				a.collisions++
				suffixed := fmt.Sprintf("%s#%x", l.Name, l.Hash)
				a.log.Warn("endpoint label hash collision",
					zap.String("existing", existing), zap.String("incoming", l.Name))
				a.labels[l.Hash] = suffixed
			}
		}
	}
}

func (a *Aggregator) labelFor(hash uint64) string {
	if name, ok := a.labels[hash]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("unknown:%x", hash)
}

func (a *Aggregator) endpointSnapshots() map[string]metricmodel.EndpointSnapshot {
	out := make(map[string]metricmodel.EndpointSnapshot, len(a.endpoints))
	for hash, ep := range a.endpoints {
		if ep.requests == 0 {
			continue
		}
		label := a.labelFor(hash)
		errRate := 0.0
		if ep.requests > 0 {
			errRate = float64(ep.errors) / float64(ep.requests)
		}
		out[label] = metricmodel.EndpointSnapshot{
			Label:     label,
			Requests:  ep.requests,
			RPS:       float64(ep.requests),
			Latencies: latenciesFrom(ep.hist),
			Errors:    ep.errors,
			ErrorRate: errRate,
		}
	}
	return out
}

func latenciesFrom(h *hdr.Histogram) metricmodel.Latencies {
	pct := func(p float64) metricmodel.Percentile {
		return metricmodel.Percentile(h.Percentile(p))
	}
	return metricmodel.Latencies{
		P50:  pct(50),
		P75:  pct(75),
		P90:  pct(90),
		P95:  pct(95),
		P99:  pct(99),
		P999: pct(99.9),
		Min:  metricmodel.Percentile(h.Min()),
		Max:  metricmodel.Percentile(h.Max()),
		Avg:  metricmodel.Percentile(h.Mean()),
	}
}

// finalSnapshot builds the run's cumulative closing snapshot from the
// cumulative histogram, reusing the last tick's counters for the
// fields that are inherently cumulative already.
func (a *Aggregator) finalSnapshot(last metricmodel.MetricSnapshot, target int) metricmodel.MetricSnapshot {
	final := last
	final.Latencies = latenciesFrom(a.cumGlobal)
	final.TargetConcurrency = target
	return final
}
