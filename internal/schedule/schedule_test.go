package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/loadforge/loadforge/internal/pattern"
)

func TestSchedulerEmitsEveryTick(t *testing.T) {
	s := New()
	p := pattern.Constant(5)

	var ticks []Tick
	ctx := context.Background()
	s.Run(ctx, p, 30*time.Millisecond, 10*time.Millisecond, func(tk Tick) {
		ticks = append(ticks, tk)
	})

	if len(ticks) != 4 {
		t.Fatalf("expected 4 ticks (0,10,20,30ms), got %d: %+v", len(ticks), ticks)
	}
	for _, tk := range ticks {
		if tk.Target != 5 {
			t.Errorf("tick at %s: Target = %d, want 5", tk.Elapsed, tk.Target)
		}
	}
	if ticks[len(ticks)-1].Elapsed != 30*time.Millisecond {
		t.Errorf("last tick Elapsed = %s, want 30ms", ticks[len(ticks)-1].Elapsed)
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	s := New()
	p := pattern.Constant(1)

	ctx, cancel := context.WithCancel(context.Background())
	var ticks []Tick
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	s.Run(ctx, p, time.Hour, 10*time.Millisecond, func(tk Tick) {
		ticks = append(ticks, tk)
	})

	if len(ticks) >= 360 {
		t.Errorf("expected scheduler to stop early on cancellation, got %d ticks", len(ticks))
	}
}

func TestSchedulerDefaultsTickIntervalViaSequence(t *testing.T) {
	// Run's tickInterval<=0 default (1s) is exercised through
	// pattern.Sequence directly here to avoid a real multi-second sleep.
	ticks := pattern.Sequence(pattern.Constant(1), 2*time.Second, 0)
	if len(ticks) != 3 {
		t.Errorf("expected 3 ticks with default 1s interval over 2s, got %d", len(ticks))
	}
}
