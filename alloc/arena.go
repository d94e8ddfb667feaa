package alloc

import "sync/atomic"

// Arena is a lock-free, thread-safe bump-pointer allocator over a
// caller-provided buffer. Individual deallocation is not supported; memory
// is reclaimed in bulk via Reset, an O(1) operation. Reset must not be
// called concurrently with Allocate.
type Arena struct {
	buffer   []byte
	offset   int64
	peak     int64
	allocs   int64
	alignPad int64
}

// NewArena wraps buf in an Arena. buf must remain valid for the arena's
// entire lifetime; the arena does not own or resize it.
func NewArena(buf []byte) *Arena {
	return &Arena{buffer: buf}
}

// Allocate reserves size bytes aligned to alignment, returning a window
// into the backing buffer, or a zero AllocationResult if size is 0 or the
// arena is exhausted.
func (a *Arena) Allocate(size, alignment int) AllocationResult {
	if alignment == 0 {
		alignment = DefaultAlignment
	}
	if err := checkAlignment(alignment); err != nil {
		panic(err)
	}
	if size == 0 {
		return AllocationResult{}
	}

	for {
		cur := atomic.LoadInt64(&a.offset)
		padding := calculatePadding(int(cur), alignment)
		aligned := cur + int64(padding)
		next := aligned + int64(size)
		if next > int64(len(a.buffer)) {
			return AllocationResult{}
		}
		if atomic.CompareAndSwapInt64(&a.offset, cur, next) {
			atomic.AddInt64(&a.allocs, 1)
			atomic.AddInt64(&a.alignPad, int64(padding))
			updatePeak(&a.peak, next)
			return AllocationResult{Data: a.buffer[aligned:next], Offset: int(aligned)}
		}
	}
}

// Reset frees every allocation made since the arena was created or last
// reset. It does not clear the buffer's contents.
func (a *Arena) Reset() {
	atomic.StoreInt64(&a.offset, 0)
	atomic.StoreInt64(&a.allocs, 0)
	atomic.StoreInt64(&a.alignPad, 0)
}

// Empty reports whether no allocations have been made since the last reset.
func (a *Arena) Empty() bool { return atomic.LoadInt64(&a.offset) == 0 }

// Full reports whether no further allocation can succeed without a reset.
func (a *Arena) Full() bool { return atomic.LoadInt64(&a.offset) >= int64(len(a.buffer)) }

// Capacity returns the arena's total capacity in bytes.
func (a *Arena) Capacity() int { return len(a.buffer) }

// FreeSpace returns the number of bytes still available before exhaustion.
func (a *Arena) FreeSpace() int {
	cur := atomic.LoadInt64(&a.offset)
	if int(cur) >= len(a.buffer) {
		return 0
	}
	return len(a.buffer) - int(cur)
}

// Stats reports current usage accounting.
func (a *Arena) Stats() AllocatorStats {
	offset := atomic.LoadInt64(&a.offset)
	allocs := atomic.LoadInt64(&a.allocs)
	return AllocatorStats{
		TotalAllocated:   offset,
		PeakUsage:        atomic.LoadInt64(&a.peak),
		AllocationCount:  allocs,
		TotalAllocations: allocs,
		AlignmentWaste:   atomic.LoadInt64(&a.alignPad),
	}
}
