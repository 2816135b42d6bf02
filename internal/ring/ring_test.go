package ring

import "testing"

func TestSlotEncodeDecodeRoundTrip(t *testing.T) {
	s := Slot{
		Timestamp:     12345.6789,
		LatencyMs:     42.5,
		StatusCode:    200,
		ContentLength: 1024,
		NameHash:      0xdeadbeefcafef00d,
		WorkerID:      3,
		ErrorCategory: 1,
		MethodCode:    2,
	}

	got := Decode(Encode(s))
	if got != s {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, s)
	}
}

func TestBufferWriteDrain(t *testing.T) {
	b := New(5)
	if b.WorkerID() != 5 {
		t.Fatalf("WorkerID() = %d, want 5", b.WorkerID())
	}

	for i := 0; i < 10; i++ {
		b.Write(Slot{StatusCode: uint16(i)})
	}

	out := b.Drain()
	if len(out) != 10 {
		t.Fatalf("Drain() returned %d slots, want 10", len(out))
	}
	for i, s := range out {
		if int(s.StatusCode) != i {
			t.Errorf("slot %d: StatusCode = %d, want %d", i, s.StatusCode, i)
		}
	}

	if more := b.Drain(); len(more) != 0 {
		t.Errorf("second Drain() returned %d slots, want 0", len(more))
	}
}

func TestBufferOverflowDrop(t *testing.T) {
	b := New(0)

	for i := 0; i < Capacity+100; i++ {
		b.Write(Slot{StatusCode: uint16(i % 65536)})
	}

	out := b.Drain()
	if len(out) != Capacity {
		t.Fatalf("Drain() returned %d slots, want %d (full ring)", len(out), Capacity)
	}
	if b.Dropped() != 100 {
		t.Errorf("Dropped() = %d, want 100", b.Dropped())
	}

	// The surviving window should be the last Capacity writes.
	first := out[0]
	if int(first.StatusCode) != 100%65536 {
		t.Errorf("oldest surviving slot StatusCode = %d, want %d", first.StatusCode, 100%65536)
	}
}

func TestBufferHeartbeat(t *testing.T) {
	b := New(1)
	if b.LastHeartbeat() != 0 {
		t.Fatalf("LastHeartbeat() = %d, want 0 before any heartbeat", b.LastHeartbeat())
	}
	b.Heartbeat(123456789)
	if got := b.LastHeartbeat(); got != 123456789 {
		t.Errorf("LastHeartbeat() = %d, want 123456789", got)
	}
}
