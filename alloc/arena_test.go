package alloc

import "testing"

func TestArenaAllocateAndReset(t *testing.T) {
	a := NewArena(make([]byte, 128))

	r1 := a.Allocate(32, DefaultAlignment)
	if !r1.Ok() || len(r1.Data) != 32 {
		t.Fatalf("expected 32-byte allocation, got %+v", r1)
	}
	r2 := a.Allocate(32, DefaultAlignment)
	if !r2.Ok() {
		t.Fatalf("expected second allocation to succeed")
	}
	if r1.Offset == r2.Offset {
		t.Fatalf("expected distinct offsets, got %d and %d", r1.Offset, r2.Offset)
	}

	a.Reset()
	if !a.Empty() {
		t.Fatalf("expected arena to be empty after reset")
	}
}

func TestArenaAllocateZeroSizeFails(t *testing.T) {
	a := NewArena(make([]byte, 64))
	r := a.Allocate(0, DefaultAlignment)
	if r.Ok() {
		t.Fatalf("expected zero-size allocation to fail")
	}
}

func TestArenaExhaustion(t *testing.T) {
	a := NewArena(make([]byte, 16))
	if !a.Allocate(16, MinAlignment).Ok() {
		t.Fatalf("expected allocation exactly filling the arena to succeed")
	}
	if a.Allocate(1, MinAlignment).Ok() {
		t.Fatalf("expected allocation past capacity to fail")
	}
	if !a.Full() {
		t.Fatalf("expected arena to report full")
	}
}
