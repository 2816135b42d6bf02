// Package worker runs one worker's fleet of virtual users: a
// cooperative scheduler realized as goroutines, each picking weighted
// scenario tasks, consulting the rate limiter, and writing completed
// request metrics into a shared-memory-style ring buffer.
//
// Workers are modeled as independent units communicating through
// shared memory; true multi-process shared memory isn't a fit for a
// single Go binary, so each worker here is a goroutine set inside one
// process, each with its own ring.Buffer. The SPSC protocol and
// 32-byte wire format are implemented exactly as if that buffer really
// were a separate address space, so a future split into real
// processes only has to change how the buffer is allocated.
package worker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/loadforge/loadforge/internal/httpclient"
	"github.com/loadforge/loadforge/internal/logger"
	"github.com/loadforge/loadforge/internal/metricmodel"
	"github.com/loadforge/loadforge/internal/ratelimit"
	"github.com/loadforge/loadforge/internal/ring"
	"github.com/loadforge/loadforge/internal/scenario"
	"go.uber.org/zap"
)

const heartbeatInterval = 250 * time.Millisecond

// metricsChanSize bounds the handoff queue between virtual-user
// goroutines and the single goroutine that owns buf.Write. It only
// needs to smooth bursts between Run's select iterations; a full
// queue means the buffer is already falling behind, so the new slot
// is dropped and accounted rather than blocking a virtual user.
const metricsChanSize = 4096

// Worker owns one ring buffer, one HTTP client, and a fleet of virtual
// users whose count tracks the most recent scale command.
//
// Two distinct shutdown signals exist. Stop requests a graceful halt:
// virtual users finish their current task and teardown before
// exiting, never cancelling mid-HTTP-call. The ctx passed to Run is
// the force boundary: once it is cancelled, every in-flight call is
// aborted immediately. A caller enforcing a grace period calls Stop
// first, then cancels ctx only if the grace period elapses before
// Wait returns.
type Worker struct {
	id         uint8
	descriptor *scenario.Descriptor
	client     *httpclient.Client
	limiter    *ratelimit.Limiter
	buf        *ring.Buffer
	metrics    chan ring.Slot // VU goroutines -> Run's goroutine, the only buf.Write caller
	labels     *metricmodel.LabelChannel
	log        *zap.Logger

	mu         sync.Mutex
	seen       map[uint64]struct{}
	vus        []*virtualUser // stack; scale-down stops from the tail (LIFO)
	vuWG       sync.WaitGroup
	nextVU     int
	globalStop chan struct{}
	stopOnce   sync.Once
}

// New builds a worker for the given id. rateLimit of 0 disables the
// per-worker RPS cap.
func New(id uint8, descriptor *scenario.Descriptor, timeout time.Duration, rateLimit, burst float64) *Worker {
	buf := ring.New(id)
	labels := metricmodel.NewLabelChannel(4096)
	w := &Worker{
		id:         id,
		descriptor: descriptor,
		limiter:    ratelimit.New(rateLimit, burst),
		buf:        buf,
		metrics:    make(chan ring.Slot, metricsChanSize),
		labels:     labels,
		log:        logger.With(zap.Uint8("worker_id", id)),
		seen:       make(map[uint64]struct{}),
		globalStop: make(chan struct{}),
	}
	w.client = httpclient.New(id, timeout, w.onComplete, w.onLabel)
	return w
}

// RingBuffer returns the worker's ring buffer, read by the aggregator.
func (w *Worker) RingBuffer() *ring.Buffer { return w.buf }

// Labels returns the worker's endpoint-label channel, read by the
// aggregator.
func (w *Worker) Labels() *metricmodel.LabelChannel { return w.labels }

// onComplete runs on whichever virtual user's goroutine just finished
// a request. It never calls buf.Write directly: the ring buffer is a
// single-producer structure, and with target > 1 virtual users this
// is called concurrently from many goroutines. Instead it hands the
// slot to Run's goroutine over metrics, which is the sole buf.Write
// caller.
func (w *Worker) onComplete(m metricmodel.RequestMetric) {
	s := ring.Slot{
		Timestamp:     m.Timestamp,
		LatencyMs:     m.LatencyMs,
		StatusCode:    m.StatusCode,
		ContentLength: m.ContentLength,
		NameHash:      m.NameHash,
		WorkerID:      m.WorkerID,
		ErrorCategory: uint8(m.ErrorCategory),
		MethodCode:    m.Method,
	}
	select {
	case w.metrics <- s:
	default:
		w.buf.MarkDropped(1)
	}
}

// onLabel forwards the first sighting of each endpoint hash to the
// aggregator's label channel; the local hash-set keeps every later
// call from a virtual user cheap.
func (w *Worker) onLabel(hash uint64, name, method string) {
	w.mu.Lock()
	_, known := w.seen[hash]
	if !known {
		w.seen[hash] = struct{}{}
	}
	w.mu.Unlock()

	if !known {
		w.labels.Send(metricmodel.EndpointLabel{Hash: hash, Name: name, Method: method})
	}
}

// Run starts the heartbeat emitter and processes scale commands until
// ctx is cancelled (the force boundary) and every virtual user has
// exited. It does not return early on Stop alone; callers that need
// to observe "drained gracefully" should call Wait.
func (w *Worker) Run(ctx context.Context, commands <-chan int) {
	w.log.Debug("worker started")

	hbTicker := time.NewTicker(heartbeatInterval)
	defer hbTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("worker force-stopping")
			w.Stop()
			w.vuWG.Wait()
			w.drainMetrics()
			w.log.Debug("worker stopped")
			return
		case <-hbTicker.C:
			w.buf.Heartbeat(time.Now().UnixNano())
		case target, ok := <-commands:
			if !ok {
				continue
			}
			w.scaleTo(ctx, target)
		case s := <-w.metrics:
			w.buf.Write(s)
		}
	}
}

// drainMetrics flushes any slots still queued in metrics once every
// virtual user has exited, so the last burst of completions before
// shutdown isn't lost. Safe to call only after vuWG.Wait returns,
// since onComplete's send is non-blocking and nothing else drains
// this channel.
func (w *Worker) drainMetrics() {
	for {
		select {
		case s := <-w.metrics:
			w.buf.Write(s)
		default:
			return
		}
	}
}

// Stop requests every virtual user to halt at its next safe point
// (between tasks) and run teardown. It does not abort in-flight HTTP
// calls; pair with a timeout on Wait and a ctx cancellation to force
// completion once a grace period elapses.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.globalStop) })
}

// Wait blocks until every virtual user has exited.
func (w *Worker) Wait() {
	w.vuWG.Wait()
}

// scaleTo adjusts the live virtual-user count to target: spawning new
// ones to scale up, gracefully stopping the most-recently-created ones
// (LIFO) to scale down.
func (w *Worker) scaleTo(ctx context.Context, target int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := len(w.vus)
	if target > current {
		for i := current; i < target; i++ {
			vu := &virtualUser{
				id:   w.nextVU,
				stop: make(chan struct{}),
				rng:  rand.New(rand.NewSource(time.Now().UnixNano() + int64(w.id)<<16 + int64(w.nextVU))),
			}
			w.nextVU++
			w.vus = append(w.vus, vu)
			w.vuWG.Add(1)
			go w.runVirtualUser(ctx, vu)
		}
	} else if target < current {
		for i := current - 1; i >= target; i-- {
			close(w.vus[i].stop)
			w.vus[i] = nil
		}
		w.vus = w.vus[:target]
	}
}

// ActiveUsers returns the current live virtual-user count.
func (w *Worker) ActiveUsers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.vus)
}

// virtualUser is one cooperative task: setup once, then forever pick
// a task, run it, think, until stopped or force-cancelled.
type virtualUser struct {
	id   int
	stop chan struct{} // closed to request this VU's graceful stop
	rng  *rand.Rand
}

func (w *Worker) runVirtualUser(ctx context.Context, vu *virtualUser) {
	defer w.vuWG.Done()

	if w.descriptor.Setup != nil {
		if err := w.descriptor.Setup(ctx); err != nil {
			w.log.Warn("virtual user setup failed", zap.Int("vu_id", vu.id), zap.Error(err))
			return
		}
	}
	defer func() {
		if w.descriptor.Teardown == nil {
			return
		}
		// teardown runs even if ctx is already cancelled (force-abort).
		tctx, tcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer tcancel()
		if err := w.descriptor.Teardown(tctx); err != nil {
			w.log.Warn("virtual user teardown failed", zap.Int("vu_id", vu.id), zap.Error(err))
		}
	}()

	for {
		if w.shouldStop(ctx, vu) {
			return
		}

		w.limiter.Acquire()

		task := w.descriptor.PickTask(vu.rng)
		if err := task.Run(ctx, w.client); err != nil {
			w.log.Debug("task invocation error", zap.String("task", task.Name), zap.Error(err))
		}

		if w.shouldStop(ctx, vu) {
			return
		}

		think := w.descriptor.ThinkTime(vu.rng)
		if think > 0 {
			select {
			case <-ctx.Done():
				return
			case <-vu.stop:
				return
			case <-w.globalStop:
				return
			case <-time.After(think):
			}
		}
	}
}

func (w *Worker) shouldStop(ctx context.Context, vu *virtualUser) bool {
	select {
	case <-ctx.Done():
		return true
	case <-vu.stop:
		return true
	case <-w.globalStop:
		return true
	default:
		return false
	}
}
