package storage

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"

	ecs "github.com/forgecraft/ecsruntime"
)

// sharedStrategy creates stores where multiple entities can reference the same
// component instance. This is useful for entities with identical data (e.g., all zombies
// sharing the same base stats) and provides memory efficiency for large entity counts.
//
// Shared components are immutable from the perspective of individual entities. To "modify"
// a shared component, remove it and add a new value. This ensures predictable behavior
// when multiple entities reference the same data.
type sharedStrategy struct{}

// NewSharedStrategy constructs a shared storage strategy.
func NewSharedStrategy() ecs.StorageStrategy {
	return sharedStrategy{}
}

func (sharedStrategy) Name() string {
	return "shared"
}

func (sharedStrategy) NewStore(t ecs.ComponentType) ecs.ComponentStore {
	return &sharedStore{
		typ:           t,
		entityToValue: make(map[ecs.EntityID]uint32),
		valueToData:   make(map[uint32]*sharedValue),
		valuesByHash:  make(map[uint64][]uint32),
		nextValueID:   1,
	}
}

// sharedValue holds a component value and tracks how many entities reference it.
type sharedValue struct {
	data     any
	hash     uint64
	refCount int
}

// sharedStore implements ComponentStore with shared component instances.
//
// Archetypes registered here (BaseStats, GameStats) are routed through
// storage.NewSharedStrategy by cmd/ecsbench's demo world and the stats
// examples precisely because a run spawns hundreds of entities off a
// handful of archetypes (see ComparisonDenseVsShared): deduplicating by
// linear scan against every distinct value ever seen would turn Set into
// O(archetypes) work per spawn. valuesByHash buckets candidates by a
// content hash of the value first, so Set only runs DeepEqual against the
// (usually single) value already sharing that hash instead of the whole
// population.
type sharedStore struct {
	mu            sync.RWMutex
	typ           ecs.ComponentType
	entityToValue map[ecs.EntityID]uint32  // maps entity to value ID
	valueToData   map[uint32]*sharedValue  // maps value ID to actual data
	valuesByHash  map[uint64][]uint32      // content hash -> candidate value IDs
	nextValueID   uint32
	count         int // number of entities with components (not unique values)
}

func (s *sharedStore) ComponentType() ecs.ComponentType {
	return s.typ
}

func (s *sharedStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func (s *sharedStore) Has(id ecs.EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.entityToValue[id]
	return exists
}

func (s *sharedStore) Get(id ecs.EntityID) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	valueID, exists := s.entityToValue[id]
	if !exists {
		return nil, false
	}

	sharedVal, ok := s.valueToData[valueID]
	if !ok {
		// This should never happen, but handle gracefully
		return nil, false
	}

	return sharedVal.data, true
}

func (s *sharedStore) Iterate(fn func(ecs.EntityID, any) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for entityID, valueID := range s.entityToValue {
		sharedVal, ok := s.valueToData[valueID]
		if !ok {
			continue
		}
		if !fn(entityID, sharedVal.data) {
			return
		}
	}
}

func (s *sharedStore) Set(id ecs.EntityID, value any) error {
	if id.IsZero() {
		return fmt.Errorf("shared: cannot set zero entity")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// If entity already has this component, remove the old reference first
	if oldValueID, exists := s.entityToValue[id]; exists {
		s.decrementRefCountLocked(oldValueID)
	} else {
		// New entity getting this component
		s.count++
	}

	// Find or create value ID for this component value
	valueID := s.findOrCreateValueLocked(value)
	s.entityToValue[id] = valueID

	return nil
}

func (s *sharedStore) Remove(id ecs.EntityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	valueID, exists := s.entityToValue[id]
	if !exists {
		return false
	}

	delete(s.entityToValue, id)
	s.decrementRefCountLocked(valueID)
	s.count--

	return true
}

func (s *sharedStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entityToValue = make(map[ecs.EntityID]uint32)
	s.valueToData = make(map[uint32]*sharedValue)
	s.valuesByHash = make(map[uint64][]uint32)
	s.count = 0
}

// hashValue derives a content hash for value, the same way typeid.go hashes
// a type's display name: format once, then xxhash the bytes. Two equal
// values always hash equal; two unequal values only occasionally collide,
// which findOrCreateValueLocked resolves with a DeepEqual check.
func hashValue(value any) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%#v", value))
}

// findOrCreateValueLocked finds an existing value ID for the given data, or creates a new one.
// Candidates are narrowed to valuesByHash[hash] before the deep-equality check, so dedup cost
// scales with the number of distinct values sharing a hash bucket rather than the store's
// entire unique-value population.
func (s *sharedStore) findOrCreateValueLocked(value any) uint32 {
	hash := hashValue(value)

	for _, candidateID := range s.valuesByHash[hash] {
		sharedVal, ok := s.valueToData[candidateID]
		if !ok {
			continue
		}
		if reflect.DeepEqual(sharedVal.data, value) {
			sharedVal.refCount++
			return candidateID
		}
	}

	// Value not found, create new entry
	valueID := s.nextValueID
	s.nextValueID++
	s.valueToData[valueID] = &sharedValue{
		data:     value,
		hash:     hash,
		refCount: 1,
	}
	s.valuesByHash[hash] = append(s.valuesByHash[hash], valueID)

	return valueID
}

// decrementRefCountLocked decreases the reference count for a value and removes it (from both
// valueToData and its hash bucket) if unused.
func (s *sharedStore) decrementRefCountLocked(valueID uint32) {
	sharedVal, ok := s.valueToData[valueID]
	if !ok {
		return
	}

	sharedVal.refCount--
	if sharedVal.refCount > 0 {
		return
	}

	delete(s.valueToData, valueID)
	bucket := s.valuesByHash[sharedVal.hash]
	for i, candidateID := range bucket {
		if candidateID == valueID {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(s.valuesByHash, sharedVal.hash)
	} else {
		s.valuesByHash[sharedVal.hash] = bucket
	}
}

// Stats returns statistics about the shared store for debugging and optimization.
func (s *sharedStore) Stats() SharedStorageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SharedStorageStats{
		EntityCount:      s.count,
		UniqueValueCount: len(s.valueToData),
		HashBucketCount:  len(s.valuesByHash),
		SharingRatio:     float64(s.count) / float64(max(len(s.valueToData), 1)),
	}
}

// SharedStorageStats provides metrics about shared component storage efficiency.
type SharedStorageStats struct {
	EntityCount      int     // number of entities with this component
	UniqueValueCount int     // number of unique component values
	HashBucketCount  int     // number of distinct content-hash buckets (collisions split a bucket)
	SharingRatio     float64 // average entities per unique value (higher = more sharing)
}

var _ ecs.ComponentStore = (*sharedStore)(nil)
