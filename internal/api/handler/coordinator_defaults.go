package handler

import (
	"time"

	"github.com/loadforge/loadforge/internal/coordinator"
)

// defaultCoordinatorConfig builds sane coordinator tunables for every
// run started through the API, including runs the CLI launches.
func defaultCoordinatorConfig(workers int) coordinator.Config {
	return coordinator.Config{
		Workers:           workers,
		TickInterval:      time.Second,
		GracePeriod:       5 * time.Second,
		RequestTimeout:    30 * time.Second,
		HeartbeatInterval: 250 * time.Millisecond,
		HeartbeatStale:    5 * time.Second,
	}
}
