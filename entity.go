package ecsruntime

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// deadGeneration is the sentinel generation marking a slot as never-allocated
// or destroyed. A handle carrying this generation is never valid.
const deadGeneration uint32 = 0

// EntityID identifies an entity and encodes a generation for stale-handle
// detection. Two handles are equal iff both fields match.
type EntityID struct {
	index      uint32
	generation uint32
}

// Index returns the backing index of the entity.
func (id EntityID) Index() uint32 { return id.index }

// Generation returns the generation counter associated with the entity.
func (id EntityID) Generation() uint32 { return id.generation }

// IsZero reports whether the identifier is the invalid sentinel value.
func (id EntityID) IsZero() bool { return id.generation == deadGeneration }

// String renders the entity identifier for debugging purposes.
func (id EntityID) String() string {
	if id.IsZero() {
		return "EntityID(invalid)"
	}
	return fmt.Sprintf("EntityID(%d:%d)", id.index, id.generation)
}

// EntityIDFromParts constructs an identifier from raw components. Intended
// for storage backends that reconstruct handles from a stored generation.
func EntityIDFromParts(index, generation uint32) EntityID {
	return EntityID{index: index, generation: generation}
}

// InvalidEntity is the designated sentinel handle.
var InvalidEntity = EntityID{}

// NewEntityRegistry constructs an empty registry.
func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{}
}

// EntityRegistry coordinates entity allocation, recycling, and the
// reserve-then-flush path used by command buffers to mint handles ahead of
// the entity becoming visible to queries.
//
// generations[i] holds the current generation for index i; deadGeneration
// means the slot has never been allocated or is currently dead. free holds
// dead indices available for reuse in LIFO order. nextIndex is the
// monotonic high-water mark; ReserveEntity advances it without touching
// generations, so a reserved-but-unflushed index sits in [0, nextIndex) with
// its old (dead) generation still in place until FlushReservedEntities runs.
type EntityRegistry struct {
	mu          sync.Mutex
	generations []uint32
	free        []uint32
	alive       uint32

	nextIndex  atomic.Uint32
	reservedLo uint32
}

// Create issues a new entity identifier, recycling slots when possible.
// Single-threaded: must not be called concurrently with Destroy or
// FlushReservedEntities.
func (r *EntityRegistry) Create() EntityID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.createLocked()
	r.nextIndex.Store(uint32(len(r.generations)))
	return id
}

func (r *EntityRegistry) createLocked() EntityID {
	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
		r.generations[index]++
		if r.generations[index] == deadGeneration {
			r.generations[index]++
		}
	} else {
		index = uint32(len(r.generations))
		r.generations = append(r.generations, 1)
	}
	r.alive++
	return EntityID{index: index, generation: r.generations[index]}
}

// CreateMany batch-creates n entities, appending their handles to out.
// Attempts to drain free indices first, then bulk-extends. n<=0 performs no
// mutation and advances no counters.
func (r *EntityRegistry) CreateMany(n int, out []EntityID) []EntityID {
	if n <= 0 {
		return out
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for ; n > 0; n-- {
		out = append(out, r.createLocked())
	}
	r.nextIndex.Store(uint32(len(r.generations)))
	return out
}

// ReserveEntity atomically reserves the next index without making the
// entity valid yet. Thread-safe; may be called concurrently with queries.
// FlushReservedEntities must run on the owning thread before the returned
// handle becomes valid.
func (r *EntityRegistry) ReserveEntity() EntityID {
	index := r.nextIndex.Add(1) - 1
	return EntityID{index: index, generation: 1}
}

// FlushReservedEntities makes all entities reserved since the previous flush
// valid. Single-threaded.
func (r *EntityRegistry) FlushReservedEntities() {
	r.mu.Lock()
	defer r.mu.Unlock()

	hi := r.nextIndex.Load()
	for uint32(len(r.generations)) < hi {
		r.generations = append(r.generations, 0)
	}
	for i := r.reservedLo; i < hi; i++ {
		if r.generations[i] != deadGeneration {
			continue // already created through Create/CreateMany
		}
		r.generations[i] = 1
		r.alive++
	}
	r.reservedLo = hi
}

// Destroy releases the entity identifier, returning true when successful.
// Requires IsAlive(id). Destroy itself touches no component storage; the
// destroy command (commands.go) removes the entity from every registered
// component store after a successful Destroy.
func (r *EntityRegistry) Destroy(id EntityID) bool {
	if id.IsZero() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isAliveLocked(id) {
		return false
	}

	r.alive--
	r.generations[id.index]++
	if r.generations[id.index] == deadGeneration {
		r.generations[id.index]++
	}
	r.free = append(r.free, id.index)
	return true
}

// IsAlive reports whether the identifier refers to a currently allocated
// entity. May be called concurrently with non-mutating queries.
func (r *EntityRegistry) IsAlive(id EntityID) bool {
	if id.IsZero() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isAliveLocked(id)
}

// Count returns the number of live entities.
func (r *EntityRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.alive)
}

// HighWaterMark returns the exclusive upper bound on live indices.
func (r *EntityRegistry) HighWaterMark() uint32 {
	return r.nextIndex.Load()
}

func (r *EntityRegistry) isAliveLocked(id EntityID) bool {
	idx := id.index
	if idx >= uint32(len(r.generations)) {
		return false
	}
	return r.generations[idx] == id.generation && id.generation != deadGeneration
}
