// Package storage provides ComponentStore implementations for
// github.com/forgecraft/ecsruntime.
package storage

import (
	"fmt"

	ecs "github.com/forgecraft/ecsruntime"
)

const absentSlot = -1

type sparseStrategy struct{}

// NewSparseStrategy constructs a sparse-set storage strategy: a dense,
// cache-friendly value array addressed indirectly through a sparse index
// array keyed by entity index, swap-removed on delete.
func NewSparseStrategy() ecs.StorageStrategy {
	return sparseStrategy{}
}

func (sparseStrategy) Name() string { return "sparse" }

func (sparseStrategy) NewStore(t ecs.ComponentType) ecs.ComponentStore {
	return &sparseStore{typ: t}
}

// sparseStore implements a classic sparse set: sparse[entity.Index()] holds
// the slot in dense/denseEntities for that entity, or absentSlot. The
// invariant dense_entities[sparse[i]].index == i holds for every live i.
// Deletion swaps the removed slot with the last live slot so dense stays
// packed with no holes.
type sparseStore struct {
	typ           ecs.ComponentType
	sparse        []int32
	dense         []any
	denseEntities []ecs.EntityID
}

func (s *sparseStore) ComponentType() ecs.ComponentType { return s.typ }

func (s *sparseStore) Len() int { return len(s.dense) }

func (s *sparseStore) Has(id ecs.EntityID) bool {
	slot, ok := s.slotOf(id)
	return ok && slot != absentSlot
}

func (s *sparseStore) Get(id ecs.EntityID) (any, bool) {
	slot, ok := s.slotOf(id)
	if !ok || slot == absentSlot {
		return nil, false
	}
	return s.dense[slot], true
}

func (s *sparseStore) Iterate(fn func(ecs.EntityID, any) bool) {
	for i, v := range s.dense {
		if !fn(s.denseEntities[i], v) {
			return
		}
	}
}

func (s *sparseStore) Set(id ecs.EntityID, value any) error {
	if id.IsZero() {
		return fmt.Errorf("storage: cannot set zero entity")
	}
	idx := int(id.Index())
	s.ensureSparse(idx + 1)

	if slot := s.sparse[idx]; slot != absentSlot {
		s.dense[slot] = value
		s.denseEntities[slot] = id
		return nil
	}

	slot := int32(len(s.dense))
	s.dense = append(s.dense, value)
	s.denseEntities = append(s.denseEntities, id)
	s.sparse[idx] = slot
	return nil
}

func (s *sparseStore) Remove(id ecs.EntityID) bool {
	slot, ok := s.slotOf(id)
	if !ok || slot == absentSlot {
		return false
	}

	lastSlot := int32(len(s.dense) - 1)
	if slot != lastSlot {
		movedEntity := s.denseEntities[lastSlot]
		s.dense[slot] = s.dense[lastSlot]
		s.denseEntities[slot] = movedEntity
		s.sparse[movedEntity.Index()] = slot
	}

	s.dense = s.dense[:lastSlot]
	s.denseEntities = s.denseEntities[:lastSlot]
	s.sparse[id.Index()] = absentSlot
	return true
}

func (s *sparseStore) Clear() {
	for i := range s.sparse {
		s.sparse[i] = absentSlot
	}
	s.dense = s.dense[:0]
	s.denseEntities = s.denseEntities[:0]
}

// DenseEntities exposes the packed entity slice backing this store,
// allowing the query engine to iterate the smallest storage directly rather
// than scanning a sparse address space (spec.md §4.6).
func (s *sparseStore) DenseEntities() []ecs.EntityID { return s.denseEntities }

func (s *sparseStore) slotOf(id ecs.EntityID) (int32, bool) {
	idx := int(id.Index())
	if idx >= len(s.sparse) {
		return absentSlot, false
	}
	slot := s.sparse[idx]
	if slot == absentSlot {
		return absentSlot, true
	}
	if s.denseEntities[slot].Generation() != id.Generation() {
		return absentSlot, false
	}
	return slot, true
}

func (s *sparseStore) ensureSparse(size int) {
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

var _ ecs.ComponentStore = (*sparseStore)(nil)

// DenseEntityLister is implemented by component stores that can expose their
// packed entity slice for smallest-storage query iteration.
type DenseEntityLister interface {
	DenseEntities() []ecs.EntityID
}
