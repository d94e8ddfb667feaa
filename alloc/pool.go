package alloc

import (
	"fmt"
	"sync"
)

// PoolAllocator hands out fixed-size blocks from a preallocated slab,
// tracking availability with a free list. Unlike Arena/Frame/Stack it
// supports individual deallocation and reuse at any time, not just in bulk
// or LIFO order.
//
// The original engine threads the free list through the block storage
// itself (each free block's first bytes hold the index of the next free
// block). This implementation keeps that free list in a separate slice of
// indices instead of writing into block memory directly, since Go slices
// handed to callers should not be reinterpreted as allocator-internal
// bookkeeping once they are in a caller's hands.
type PoolAllocator struct {
	mu         sync.Mutex
	buffer     []byte
	blockSize  int
	blockCount int
	stride     int
	free       []int32 // stack of free block indices
	allocCount int64
	totalA     int64
	totalD     int64
}

// ForType sizes a PoolAllocator for blockCount instances of a sizeHint
// byte, alignHint-aligned type. Call sites determine sizeHint/alignHint via
// unsafe.Sizeof/unsafe.Alignof on the type they intend to store; see
// adapter.go.
func ForType(sizeHint, alignHint, blockCount int) *PoolAllocator {
	alignment := alignHint
	if alignment < MinAlignment {
		alignment = MinAlignment
	}
	return NewPoolAllocator(sizeHint, blockCount, alignment)
}

// NewPoolAllocator constructs a pool of blockCount blocks, each blockSize
// bytes, aligned to alignment.
func NewPoolAllocator(blockSize, blockCount, alignment int) *PoolAllocator {
	if blockCount <= 0 {
		panic("alloc: PoolAllocator block count must be greater than 0")
	}
	if alignment == 0 {
		alignment = DefaultAlignment
	}
	if err := checkAlignment(alignment); err != nil {
		panic(err)
	}

	stride := blockSize + calculatePadding(blockSize, alignment)
	if stride == 0 {
		stride = alignment
	}

	p := &PoolAllocator{
		buffer:     make([]byte, stride*blockCount),
		blockSize:  blockSize,
		blockCount: blockCount,
		free:       make([]int32, blockCount),
	}
	for i := 0; i < blockCount; i++ {
		p.free[i] = int32(blockCount - 1 - i)
	}
	p.stride = stride
	return p
}

// Allocate reserves one block. size must not exceed the pool's block size;
// alignment is accepted for interface parity with Allocator but is fixed
// by the pool's construction.
func (p *PoolAllocator) Allocate(size, _ int) AllocationResult {
	if size > p.blockSize {
		panic(fmt.Errorf("alloc: PoolAllocator.Allocate size %d exceeds block size %d", size, p.blockSize))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return AllocationResult{}
	}
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	start := int(idx) * p.stride
	end := start + p.blockSize
	p.allocCount++
	p.totalA++
	return AllocationResult{Data: p.buffer[start:end], Offset: start}
}

// Deallocate returns a block to the pool. ptr must be a slice previously
// returned by Allocate on this pool.
func (p *PoolAllocator) Deallocate(ptr []byte) {
	if ptr == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	offset := cap(p.buffer) - cap(ptr)
	idx := int32(offset / p.stride)
	if idx < 0 || int(idx) >= p.blockCount {
		panic(fmt.Errorf("alloc: deallocated pointer does not belong to this pool"))
	}

	p.free = append(p.free, idx)
	p.allocCount--
	p.totalD++
}

// Capacity returns the total number of blocks in the pool.
func (p *PoolAllocator) Capacity() int { return p.blockCount }

// AvailableBlocks returns the number of blocks currently free.
func (p *PoolAllocator) AvailableBlocks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Stats reports current usage accounting.
func (p *PoolAllocator) Stats() AllocatorStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return AllocatorStats{
		TotalAllocated:     p.allocCount * int64(p.blockSize),
		AllocationCount:    p.allocCount,
		TotalAllocations:   p.totalA,
		TotalDeallocations: p.totalD,
	}
}
