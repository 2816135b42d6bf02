package handler

import "testing"

func TestDefaultCoordinatorConfigUsesRequestedWorkers(t *testing.T) {
	cfg := defaultCoordinatorConfig(8)
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.TickInterval <= 0 || cfg.GracePeriod <= 0 || cfg.RequestTimeout <= 0 {
		t.Error("expected all durations to be positive")
	}
	if cfg.HeartbeatInterval >= cfg.HeartbeatStale {
		t.Error("expected HeartbeatInterval to be smaller than HeartbeatStale")
	}
}
