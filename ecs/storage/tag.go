package storage

import (
	"fmt"

	ecs "github.com/forgecraft/ecsruntime"
)

type tagStrategy struct{}

// NewTagStrategy constructs a storage strategy for zero-sized marker
// components: only membership is tracked, no value array (spec.md §4.3).
func NewTagStrategy() ecs.StorageStrategy {
	return tagStrategy{}
}

func (tagStrategy) Name() string { return "tag" }

func (tagStrategy) NewStore(t ecs.ComponentType) ecs.ComponentStore {
	return &tagStore{typ: t}
}

// tagStore elides the dense value array of sparseStore entirely, keeping
// only the sparse index and a packed slice of owning entities.
type tagStore struct {
	typ           ecs.ComponentType
	sparse        []int32
	denseEntities []ecs.EntityID
}

func (s *tagStore) ComponentType() ecs.ComponentType { return s.typ }

func (s *tagStore) Len() int { return len(s.denseEntities) }

func (s *tagStore) Has(id ecs.EntityID) bool {
	_, ok := s.slotOf(id)
	return ok
}

func (s *tagStore) Get(id ecs.EntityID) (any, bool) {
	if _, ok := s.slotOf(id); ok {
		return struct{}{}, true
	}
	return nil, false
}

func (s *tagStore) Iterate(fn func(ecs.EntityID, any) bool) {
	for _, e := range s.denseEntities {
		if !fn(e, struct{}{}) {
			return
		}
	}
}

func (s *tagStore) Set(id ecs.EntityID, _ any) error {
	if id.IsZero() {
		return fmt.Errorf("storage: cannot set zero entity")
	}
	idx := int(id.Index())
	s.ensureSparse(idx + 1)
	if s.sparse[idx] != absentSlot {
		return nil
	}
	slot := int32(len(s.denseEntities))
	s.denseEntities = append(s.denseEntities, id)
	s.sparse[idx] = slot
	return nil
}

func (s *tagStore) Remove(id ecs.EntityID) bool {
	slot, ok := s.slotOf(id)
	if !ok {
		return false
	}
	lastSlot := int32(len(s.denseEntities) - 1)
	if slot != lastSlot {
		moved := s.denseEntities[lastSlot]
		s.denseEntities[slot] = moved
		s.sparse[moved.Index()] = slot
	}
	s.denseEntities = s.denseEntities[:lastSlot]
	s.sparse[id.Index()] = absentSlot
	return true
}

func (s *tagStore) Clear() {
	for i := range s.sparse {
		s.sparse[i] = absentSlot
	}
	s.denseEntities = s.denseEntities[:0]
}

func (s *tagStore) DenseEntities() []ecs.EntityID { return s.denseEntities }

func (s *tagStore) slotOf(id ecs.EntityID) (int32, bool) {
	idx := int(id.Index())
	if idx >= len(s.sparse) {
		return absentSlot, false
	}
	slot := s.sparse[idx]
	if slot == absentSlot {
		return absentSlot, false
	}
	if s.denseEntities[slot].Generation() != id.Generation() {
		return absentSlot, false
	}
	return slot, true
}

func (s *tagStore) ensureSparse(size int) {
	if size <= len(s.sparse) {
		return
	}
	grown := make([]int32, size)
	copy(grown, s.sparse)
	for i := len(s.sparse); i < size; i++ {
		grown[i] = absentSlot
	}
	s.sparse = grown
}

var (
	_ ecs.ComponentStore = (*tagStore)(nil)
	_ DenseEntityLister  = (*tagStore)(nil)
)
