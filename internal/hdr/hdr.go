// Package hdr wraps github.com/codahale/hdrhistogram to record
// request latencies and answer percentile queries at microsecond
// precision.
package hdr

import (
	"math"

	"github.com/codahale/hdrhistogram"
)

const (
	minValueUs   = 1        // 1 microsecond
	maxValueUs   = 60000000 // 60 seconds, in microseconds
	significant  = 3
)

// Histogram records latencies in milliseconds (as doubles) but stores
// them internally in microseconds, covering a 1µs-to-60s range at 3
// significant digits.
type Histogram struct {
	h *hdrhistogram.Histogram
}

// New creates an empty histogram over the configured range and precision.
func New() *Histogram {
	return &Histogram{h: hdrhistogram.New(minValueUs, maxValueUs, significant)}
}

// RecordValue records one latency observation, in milliseconds.
func (h *Histogram) RecordValue(latencyMs float64) {
	us := int64(latencyMs * 1000)
	if us < minValueUs {
		us = minValueUs
	}
	if us > maxValueUs {
		us = maxValueUs
	}
	_ = h.h.RecordValue(us)
}

// Percentile returns the p-th percentile (p in [0,100]) in
// milliseconds, using nearest-rank semantics with ties broken toward
// the lower bucket (the library's native behavior). An empty histogram
// returns NaN.
func (h *Histogram) Percentile(p float64) float64 {
	if h.h.TotalCount() == 0 {
		return math.NaN()
	}
	return float64(h.h.ValueAtQuantile(p)) / 1000.0
}

// Min returns the minimum recorded latency in milliseconds, or NaN if
// empty.
func (h *Histogram) Min() float64 {
	if h.h.TotalCount() == 0 {
		return math.NaN()
	}
	return float64(h.h.Min()) / 1000.0
}

// Max returns the maximum recorded latency in milliseconds, or NaN if
// empty.
func (h *Histogram) Max() float64 {
	if h.h.TotalCount() == 0 {
		return math.NaN()
	}
	return float64(h.h.Max()) / 1000.0
}

// Mean returns the average recorded latency in milliseconds, or NaN if
// empty.
func (h *Histogram) Mean() float64 {
	if h.h.TotalCount() == 0 {
		return math.NaN()
	}
	return h.h.Mean() / 1000.0
}

// Count returns the number of values recorded since the last Reset.
func (h *Histogram) Count() int64 {
	return h.h.TotalCount()
}

// Reset clears all recorded values.
func (h *Histogram) Reset() {
	h.h.Reset()
}

// Merge folds other's recorded values into h, used to feed the
// cumulative histogram from a tick-local one before the tick-local
// histogram is reset.
func (h *Histogram) Merge(other *Histogram) {
	h.h.Merge(other.h)
}
