package alloc

// DoubleFrameAllocator alternates between two FrameAllocators across tick
// boundaries, so data allocated on the previous tick remains readable
// (e.g. for double-buffered interpolation) while the current tick's
// allocations land in the other buffer. NextFrame swaps which buffer is
// "current" and resets the one that becomes the new current buffer.
type DoubleFrameAllocator struct {
	buffers [kBufferCount]*FrameAllocator
	current int
}

// kBufferCount is the fixed buffer count, kept as a named constant to
// mirror DoubleFrameAllocator::kBufferCount from the original engine.
const kBufferCount = 2

// NewDoubleFrameAllocator allocates two capacity-byte buffers.
func NewDoubleFrameAllocator(capacityPerBuffer int) *DoubleFrameAllocator {
	d := &DoubleFrameAllocator{}
	for i := range d.buffers {
		d.buffers[i] = NewFrameAllocator(capacityPerBuffer)
	}
	return d
}

// Allocate reserves memory from the current buffer.
func (d *DoubleFrameAllocator) Allocate(size, alignment int) AllocationResult {
	return d.buffers[d.current].Allocate(size, alignment)
}

// NextFrame swaps the current and previous buffers and resets the new
// current buffer, freeing whatever it held two frames ago.
func (d *DoubleFrameAllocator) NextFrame() {
	d.current = d.PreviousBufferIndex()
	d.buffers[d.current].Reset()
}

// CurrentBufferIndex returns the index of the buffer new allocations land
// in.
func (d *DoubleFrameAllocator) CurrentBufferIndex() int { return d.current }

// PreviousBufferIndex returns the index of the other buffer.
func (d *DoubleFrameAllocator) PreviousBufferIndex() int { return (d.current + 1) % kBufferCount }

// Capacity returns the combined capacity of both buffers.
func (d *DoubleFrameAllocator) Capacity() int {
	total := 0
	for _, b := range d.buffers {
		total += b.Capacity()
	}
	return total
}

// CurrentFrameStats reports usage accounting for the buffer new allocations
// land in.
func (d *DoubleFrameAllocator) CurrentFrameStats() AllocatorStats {
	return d.buffers[d.current].Stats()
}

// PreviousFrameStats reports usage accounting for the other buffer, i.e.
// the data from one NextFrame ago that is still readable.
func (d *DoubleFrameAllocator) PreviousFrameStats() AllocatorStats {
	return d.buffers[d.PreviousBufferIndex()].Stats()
}

// Stats aggregates both buffers' usage accounting (spec.md §4.1: "stats
// aggregates" current_frame_stats and previous_frame_stats).
func (d *DoubleFrameAllocator) Stats() AllocatorStats {
	current := d.CurrentFrameStats()
	previous := d.PreviousFrameStats()
	return AllocatorStats{
		TotalAllocated:     current.TotalAllocated + previous.TotalAllocated,
		TotalFreed:         current.TotalFreed + previous.TotalFreed,
		PeakUsage:          current.PeakUsage + previous.PeakUsage,
		AllocationCount:    current.AllocationCount + previous.AllocationCount,
		TotalAllocations:   current.TotalAllocations + previous.TotalAllocations,
		TotalDeallocations: current.TotalDeallocations + previous.TotalDeallocations,
		AlignmentWaste:     current.AlignmentWaste + previous.AlignmentWaste,
	}
}
