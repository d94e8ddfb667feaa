package alloc

import "unsafe"

// New allocates and zero-constructs one T from a, the closest analogue to
// AllocateAndConstruct<T> available without placement-new: Go zero-values
// are already valid constructed state for the plain data structs this
// package is meant to back (frame-scoped query results, command payloads),
// so there is no separate construction step beyond zeroing.
func New[T any](a Allocator) (*T, bool) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))
	if align < MinAlignment {
		align = MinAlignment
	}
	res := a.Allocate(size, align)
	if !res.Ok() {
		return nil, false
	}
	ptr := (*T)(unsafe.Pointer(&res.Data[0]))
	*ptr = zero
	return ptr, true
}

// NewSlice allocates a contiguous, zero-constructed []T of length n from a.
func NewSlice[T any](a Allocator, n int) ([]T, bool) {
	if n <= 0 {
		return nil, false
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))
	if align < MinAlignment {
		align = MinAlignment
	}
	res := a.Allocate(elemSize*n, align)
	if !res.Ok() {
		return nil, false
	}
	out := unsafe.Slice((*T)(unsafe.Pointer(&res.Data[0])), n)
	var blank T
	for i := range out {
		out[i] = blank
	}
	return out, true
}

// SizeAndAlignOf returns unsafe.Sizeof/unsafe.Alignof for T, for callers
// sizing a PoolAllocator with ForType-style construction without forcing
// the pool package itself to take a type parameter.
func SizeAndAlignOf[T any]() (size, align int) {
	var zero T
	return int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
}
