package alloc

import "testing"

func TestFrameAllocatorResetReclaimsSpace(t *testing.T) {
	f := NewFrameAllocator(64)
	if !f.Allocate(64, MinAlignment).Ok() {
		t.Fatalf("expected full-capacity allocation to succeed")
	}
	if !f.Full() {
		t.Fatalf("expected frame allocator to report full")
	}
	f.Reset()
	if !f.Allocate(64, MinAlignment).Ok() {
		t.Fatalf("expected allocation to succeed again after reset")
	}
}

func TestDoubleFrameAllocatorAlternates(t *testing.T) {
	d := NewDoubleFrameAllocator(32)
	if d.CurrentBufferIndex() != 0 || d.PreviousBufferIndex() != 1 {
		t.Fatalf("unexpected initial buffer indices")
	}

	d.Allocate(16, MinAlignment)
	d.NextFrame()
	if d.CurrentBufferIndex() != 1 || d.PreviousBufferIndex() != 0 {
		t.Fatalf("expected buffers to swap after NextFrame")
	}
	if !d.buffers[1].Empty() {
		t.Fatalf("expected the newly current buffer to be reset")
	}
}

func TestDoubleFrameAllocatorStatsAggregateBothBuffers(t *testing.T) {
	d := NewDoubleFrameAllocator(64)

	d.Allocate(16, MinAlignment)
	d.NextFrame()
	d.Allocate(8, MinAlignment)

	current := d.CurrentFrameStats()
	previous := d.PreviousFrameStats()
	if current.TotalAllocated != 8 {
		t.Fatalf("expected current frame to have allocated 8 bytes, got %d", current.TotalAllocated)
	}
	if previous.TotalAllocated != 16 {
		t.Fatalf("expected previous frame to still report 16 bytes allocated, got %d", previous.TotalAllocated)
	}

	combined := d.Stats()
	if combined.TotalAllocated != current.TotalAllocated+previous.TotalAllocated {
		t.Fatalf("expected Stats to sum both buffers, got %d", combined.TotalAllocated)
	}
	if combined.AllocationCount != current.AllocationCount+previous.AllocationCount {
		t.Fatalf("expected Stats to sum allocation counts, got %d", combined.AllocationCount)
	}
}
