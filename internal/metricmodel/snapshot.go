package metricmodel

import "time"

// Latencies bundles the percentile family every snapshot level (global
// and per-endpoint) reports.
type Latencies struct {
	P50  Percentile `json:"p50"`
	P75  Percentile `json:"p75,omitempty"`
	P90  Percentile `json:"p90,omitempty"`
	P95  Percentile `json:"p95"`
	P99  Percentile `json:"p99"`
	P999 Percentile `json:"p999,omitempty"`
	Min  Percentile `json:"min"`
	Max  Percentile `json:"max"`
	Avg  Percentile `json:"avg"`
}

// EndpointSnapshot is the per-endpoint slice of a tick's aggregation.
type EndpointSnapshot struct {
	Label        string     `json:"label"`
	Requests     int64      `json:"requests"`
	RPS          float64    `json:"rps"`
	Latencies    Latencies  `json:"latencies"`
	Errors       int64      `json:"errors"`
	ErrorRate    float64    `json:"error_rate"`
}

// Diagnostics surfaces the aggregator's operational counters: ring
// buffer overflow and endpoint-label hash collisions.
type Diagnostics struct {
	DroppedRecords uint64 `json:"dropped_records"`
	CollisionCount uint64 `json:"collision_count"`
}

// MetricSnapshot is the aggregated, once-per-tick view of a run.
type MetricSnapshot struct {
	WallTime            time.Time                    `json:"wall_time"`
	ElapsedSec          float64                      `json:"elapsed_sec"`
	TargetConcurrency   int                          `json:"target_concurrency"`
	ActiveUsers         int                          `json:"active_users"`
	TotalRequests       int64                        `json:"total_requests"`
	RequestsThisTick    int64                        `json:"requests_this_tick"`
	RequestsPerSecond   float64                      `json:"requests_per_second"`
	Latencies           Latencies                    `json:"latencies"`
	TotalErrors         int64                        `json:"total_errors"`
	ErrorsThisTick      int64                        `json:"errors_this_tick"`
	ErrorRate           float64                      `json:"error_rate"`
	ErrorsByStatus      map[int]int64                `json:"errors_by_status,omitempty"`
	ErrorsByCategory    map[string]int64              `json:"errors_by_category,omitempty"`
	Endpoints           map[string]EndpointSnapshot   `json:"endpoints,omitempty"`
	Diagnostics         Diagnostics                  `json:"diagnostics"`
}

// Event records a coordinator-level occurrence worth surfacing in the
// final TestResult (e.g. a worker failure and its redistribution).
type Event struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

// TestResult is the coordinator-owned record of one run. Only
// AppendSnapshot may grow Snapshots; there is no external mutation.
type TestResult struct {
	ScenarioName    string           `json:"scenario_name"`
	PatternDesc     string           `json:"pattern_description"`
	StartedAt       time.Time        `json:"started_at"`
	EndedAt         time.Time        `json:"ended_at"`
	Duration        time.Duration    `json:"duration"`
	Snapshots       []MetricSnapshot `json:"snapshots"`
	Final           MetricSnapshot   `json:"final"`
	Events          []Event          `json:"events,omitempty"`
	FailureReason   string           `json:"failure_reason,omitempty"`
}

// AppendSnapshot is the Aggregator's append-only write path into a
// TestResult.
func (r *TestResult) AppendSnapshot(s MetricSnapshot) {
	r.Snapshots = append(r.Snapshots, s)
}

// AppendEvent records a coordinator-level occurrence.
func (r *TestResult) AppendEvent(kind, message string, at time.Time) {
	r.Events = append(r.Events, Event{At: at, Kind: kind, Message: message})
}
