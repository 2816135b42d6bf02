// Package ring implements the single-producer single-consumer metrics
// transport between a worker and the aggregator: a fixed-capacity
// circular array of 32-byte slots with atomic release/acquire
// synchronization on the write index and drop-on-overflow semantics.
package ring

import "sync/atomic"

// Capacity is the number of slots per ring, per spec: N = 65536.
const Capacity = 65536

// Buffer is a lock-free SPSC ring buffer. The producer (one worker
// goroutine) calls Write; the consumer (the aggregator) calls Drain
// from a different goroutine. Neither side touches the other's
// book-keeping field: the producer never reads readIndex, the consumer
// never writes writeIndex.
type Buffer struct {
	slots      [Capacity][SlotSize]byte
	writeIndex uint64 // atomic, producer-owned
	heartbeat  int64  // atomic, unix-nano, producer-owned
	workerID   uint8
	dropped    uint64 // atomic; bumped by Drain on overflow and by MarkDropped

	readIndex uint64 // consumer-only, not shared
}

// New creates a ring buffer for the given worker id.
func New(workerID uint8) *Buffer {
	return &Buffer{workerID: workerID}
}

// WorkerID returns the id this buffer was created for.
func (b *Buffer) WorkerID() uint8 { return b.workerID }

// Write stores one slot. It never blocks: once the ring wraps, older
// unread entries are simply overwritten (the consumer's next Drain
// detects the gap and accounts for it as dropped).
func (b *Buffer) Write(s Slot) {
	idx := atomic.LoadUint64(&b.writeIndex)
	b.slots[idx%Capacity] = Encode(s)
	atomic.StoreUint64(&b.writeIndex, idx+1) // release-store
}

// Heartbeat records a producer liveness timestamp (unix nanoseconds).
func (b *Buffer) Heartbeat(unixNano int64) {
	atomic.StoreInt64(&b.heartbeat, unixNano)
}

// LastHeartbeat returns the most recent producer heartbeat.
func (b *Buffer) LastHeartbeat() int64 {
	return atomic.LoadInt64(&b.heartbeat)
}

// Dropped returns the cumulative count of records lost to overflow.
func (b *Buffer) Dropped() uint64 {
	return atomic.LoadUint64(&b.dropped)
}

// MarkDropped records n records the producer discarded before they
// ever reached Write (e.g. a full handoff queue ahead of the buffer).
// It folds into the same diagnostic Dropped reports, since from the
// consumer's perspective both are the same thing: records it will
// never see.
func (b *Buffer) MarkDropped(n uint64) {
	atomic.AddUint64(&b.dropped, n)
}

// Drain reads every slot written since the last Drain call and returns
// the decoded metrics in write order. If the producer has overflowed
// the ring since the last drain, the lost span is recorded in Dropped
// and the read position skips forward past it.
func (b *Buffer) Drain() []Slot {
	write := atomic.LoadUint64(&b.writeIndex) // acquire-load

	gap := write - b.readIndex
	if gap > Capacity {
		lost := gap - Capacity
		atomic.AddUint64(&b.dropped, lost)
		b.readIndex = write - Capacity
	}

	out := make([]Slot, 0, write-b.readIndex)
	for i := b.readIndex; i < write; i++ {
		out = append(out, Decode(b.slots[i%Capacity]))
	}
	b.readIndex = write
	return out
}
