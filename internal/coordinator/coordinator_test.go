package coordinator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loadforge/loadforge/internal/httpclient"
	"github.com/loadforge/loadforge/internal/metricmodel"
	"github.com/loadforge/loadforge/internal/pattern"
	"github.com/loadforge/loadforge/internal/scenario"
)

func testDescriptor(t *testing.T, baseURL string) *scenario.Descriptor {
	t.Helper()
	task := scenario.Task{
		Name:   "GET /",
		Weight: 1,
		Run: func(ctx context.Context, client *httpclient.Client) error {
			return client.Get(ctx, baseURL, "GET /", nil)
		},
	}
	d, err := scenario.New("coordinator-test", baseURL, nil, []scenario.Task{task}, nil, nil, time.Millisecond, 2*time.Millisecond)
	if err != nil {
		t.Fatalf("scenario.New error: %v", err)
	}
	return d
}

func TestCoordinatorRunCompletesAndAggregates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	desc := testDescriptor(t, srv.URL)

	c := New(Config{
		Workers:           2,
		TickInterval:      10 * time.Millisecond,
		GracePeriod:       200 * time.Millisecond,
		RequestTimeout:    time.Second,
		HeartbeatInterval: 20 * time.Millisecond,
		HeartbeatStale:    time.Hour, // don't trigger failure detection in this test
	})

	var snapshots int
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := c.Run(ctx, desc, pattern.Constant(3), 60*time.Millisecond, func(s metricmodel.MetricSnapshot) {
		snapshots++
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.FailureReason != "" {
		t.Errorf("unexpected FailureReason: %q", result.FailureReason)
	}
	if snapshots == 0 {
		t.Error("expected at least one snapshot callback invocation")
	}
	if result.EndedAt.Before(result.StartedAt) {
		t.Error("EndedAt should not precede StartedAt")
	}
	if result.ScenarioName != "coordinator-test" {
		t.Errorf("ScenarioName = %q, want coordinator-test", result.ScenarioName)
	}
}

func TestCoordinatorDefaultsMinWorkers(t *testing.T) {
	c := New(Config{Workers: 0})
	if c.cfg.Workers != minWorkers {
		t.Errorf("Workers = %d, want clamped to %d", c.cfg.Workers, minWorkers)
	}
}

func TestExtraDistributesRemainder(t *testing.T) {
	// target=10 over n=3 workers: shares should be 4,3,3 (sum=10).
	total := 0
	for pos := 0; pos < 3; pos++ {
		total += 10/3 + extra(pos, 10, 3)
	}
	if total != 10 {
		t.Errorf("sum of distributed shares = %d, want 10", total)
	}
}

func TestExtraZeroWorkers(t *testing.T) {
	if got := extra(0, 5, 0); got != 0 {
		t.Errorf("extra with n=0 = %d, want 0", got)
	}
}
