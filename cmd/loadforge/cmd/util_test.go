package cmd

import "testing"

func TestAsFloatExtractsFloat64(t *testing.T) {
	if got := asFloat(float64(42.5)); got != 42.5 {
		t.Errorf("asFloat = %v, want 42.5", got)
	}
}

func TestAsFloatNonFloatReturnsZero(t *testing.T) {
	if got := asFloat("not a number"); got != 0 {
		t.Errorf("asFloat = %v, want 0", got)
	}
	if got := asFloat(nil); got != 0 {
		t.Errorf("asFloat(nil) = %v, want 0", got)
	}
}

func TestTruncateShortStringUnchanged(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q, want short", got)
	}
}

func TestTruncateLongStringAddsEllipsis(t *testing.T) {
	got := truncate("abcdefghijklmnop", 10)
	want := "abcdefg..."
	if got != want {
		t.Errorf("truncate = %q, want %q", got, want)
	}
	if len(got) != 10 {
		t.Errorf("len(truncate) = %d, want 10", len(got))
	}
}
