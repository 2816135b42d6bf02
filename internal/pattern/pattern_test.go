package pattern

import (
	"testing"
	"time"
)

func TestConstant(t *testing.T) {
	p := Constant(10)
	for _, elapsed := range []time.Duration{0, time.Second, time.Hour} {
		if got := p.TargetAt(elapsed); got != 10 {
			t.Errorf("TargetAt(%s) = %d, want 10", elapsed, got)
		}
	}
}

func TestRamp(t *testing.T) {
	p := Ramp(0, 100, 10*time.Second)

	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{5 * time.Second, 50},
		{10 * time.Second, 100},
		{20 * time.Second, 100}, // holds after ramp completes
	}
	for _, c := range cases {
		if got := p.TargetAt(c.elapsed); got != c.want {
			t.Errorf("TargetAt(%s) = %d, want %d", c.elapsed, got, c.want)
		}
	}
}

func TestRampZeroDuration(t *testing.T) {
	p := Ramp(0, 50, 0)
	if got := p.TargetAt(time.Second); got != 50 {
		t.Errorf("TargetAt = %d, want 50 (immediate jump to End)", got)
	}
}

func TestStep(t *testing.T) {
	p := Step(10, 5, time.Second, 3)

	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 10},
		{999 * time.Millisecond, 10},
		{time.Second, 15},
		{2 * time.Second, 20},
		{3 * time.Second, 25},
		{10 * time.Second, 25}, // caps at Steps
	}
	for _, c := range cases {
		if got := p.TargetAt(c.elapsed); got != c.want {
			t.Errorf("TargetAt(%s) = %d, want %d", c.elapsed, got, c.want)
		}
	}
}

func TestSpike(t *testing.T) {
	p := Spike(5, 50, 3*time.Second)

	if got := p.TargetAt(0); got != 50 {
		t.Errorf("TargetAt(0) = %d, want 50", got)
	}
	if got := p.TargetAt(2 * time.Second); got != 50 {
		t.Errorf("TargetAt(2s) = %d, want 50", got)
	}
	if got := p.TargetAt(3 * time.Second); got != 5 {
		t.Errorf("TargetAt(3s) = %d, want 5 (spike over)", got)
	}
	if got := p.TargetAt(time.Hour); got != 5 {
		t.Errorf("TargetAt(1h) = %d, want 5", got)
	}
}

func TestDiurnal(t *testing.T) {
	p := Diurnal(0, 100, 4*time.Second)

	if got := p.TargetAt(0); got != 0 {
		t.Errorf("TargetAt(0) = %d, want 0 (trough)", got)
	}
	if got := p.TargetAt(2 * time.Second); got != 100 {
		t.Errorf("TargetAt(half period) = %d, want 100 (peak)", got)
	}
	if got := p.TargetAt(4 * time.Second); got != 0 {
		t.Errorf("TargetAt(full period) = %d, want 0 (back to trough)", got)
	}
}

func TestComposite(t *testing.T) {
	p := Composite(
		Segment{Pattern: Constant(10), Duration: 2 * time.Second},
		Segment{Pattern: Constant(20), Duration: 3 * time.Second},
	)

	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 10},
		{time.Second, 10},
		{2 * time.Second, 20},
		{4 * time.Second, 20},
		{100 * time.Second, 20}, // holds last segment's final value
	}
	for _, c := range cases {
		if got := p.TargetAt(c.elapsed); got != c.want {
			t.Errorf("TargetAt(%s) = %d, want %d", c.elapsed, got, c.want)
		}
	}

	if got := p.Duration(); got != 5*time.Second {
		t.Errorf("Duration() = %s, want 5s", got)
	}
}

func TestCompositeEmpty(t *testing.T) {
	p := Composite()
	if got := p.TargetAt(time.Second); got != 0 {
		t.Errorf("TargetAt on empty composite = %d, want 0", got)
	}
	if got := p.Duration(); got != 0 {
		t.Errorf("Duration on empty composite = %s, want 0", got)
	}
}

func TestDescribe(t *testing.T) {
	cases := []Pattern{
		Constant(5),
		Ramp(0, 10, time.Second),
		Step(0, 1, time.Second, 5),
		Spike(1, 2, time.Second),
		Diurnal(0, 1, time.Minute),
		Composite(Segment{Pattern: Constant(1), Duration: time.Second}),
	}
	for _, p := range cases {
		if desc := p.Describe(); desc == "" || desc == "unknown" {
			t.Errorf("Describe() for kind %d returned %q", p.Kind, desc)
		}
	}
}

func TestSequence(t *testing.T) {
	p := Constant(7)
	ticks := Sequence(p, 5*time.Second, time.Second)

	if len(ticks) != 6 {
		t.Fatalf("expected 6 ticks (0..5s inclusive), got %d", len(ticks))
	}
	if ticks[0].Elapsed != 0 || ticks[len(ticks)-1].Elapsed != 5*time.Second {
		t.Errorf("ticks should span from 0 to duration, got first=%s last=%s",
			ticks[0].Elapsed, ticks[len(ticks)-1].Elapsed)
	}
	for _, tick := range ticks {
		if tick.Target != 7 {
			t.Errorf("tick at %s: Target = %d, want 7", tick.Elapsed, tick.Target)
		}
	}
}

func TestSequenceDefaultsTickInterval(t *testing.T) {
	p := Constant(1)
	ticks := Sequence(p, 2*time.Second, 0)
	if len(ticks) != 3 {
		t.Fatalf("expected 3 ticks with default 1s interval over 2s, got %d", len(ticks))
	}
}
