package query

import (
	ecs "github.com/forgecraft/ecsruntime"
	"github.com/forgecraft/ecsruntime/ecs/storage"
)

// Tuple pairs the owning entity with its component value, the base item
// type every materialized query yields. WithEntity (spec.md §4.6) is
// therefore a same-shape pass-through here: the entity handle is already
// part of every tuple, never bolted on as an afterthought.
type Tuple[T any] struct {
	Entity ecs.EntityID
	Value  T
}

// WithEntity is the identity adapter named in spec.md §4.6; Tuple already
// carries the owning entity, so this exists for call-site parity with the
// source engine's adapter chain.
func WithEntity[T any](s Seq[Tuple[T]]) Seq[Tuple[T]] { return s }

// filterSpec accumulates With/Without component-type constraints for a
// query, in addition to the primary type T being iterated.
type filterSpec struct {
	with    []ecs.ComponentType
	without []ecs.ComponentType
}

// Option configures a query's With/Without filters.
type Option func(*filterSpec)

// With requires the entity to also carry a component of type U.
func With[U any]() Option {
	t := ecs.ComponentTypeOf[U]()
	return func(f *filterSpec) { f.with = append(f.with, t) }
}

// Without excludes entities that carry a component of type U.
func Without[U any]() Option {
	t := ecs.ComponentTypeOf[U]()
	return func(f *filterSpec) { f.without = append(f.without, t) }
}

// For materializes a query over component type T: it iterates the smallest
// matching storage among T and any With filters, then probes the remaining
// storages' sparse sets in O(1) per candidate entity. A query over a type
// that was never registered yields an empty sequence rather than an error.
func For[T any](w *ecs.World, opts ...Option) Seq[Tuple[T]] {
	primary := ecs.ComponentTypeOf[T]()
	primaryView, candidates, probes, excludes, ok := plan(w, primary, opts)
	if !ok {
		return func(func(Tuple[T]) bool) {}
	}

	return func(yield func(Tuple[T]) bool) {
		candidates(func(e ecs.EntityID) bool {
			if !matches(e, primaryView, probes, excludes) {
				return true
			}
			raw, ok := primaryView.Get(e)
			if !ok {
				return true
			}
			value, ok := raw.(T)
			if !ok {
				return true
			}
			return yield(Tuple[T]{Entity: e, Value: value})
		})
	}
}

// Tuple2 pairs an entity with two component values. For2 is the two-type
// analogue of For: every query parameter beyond the primary gets its value
// placed in the tuple too, not just probed for presence (spec.md §4.6 calls
// for a query's declared read/write parameters to all surface as tuple
// fields, not merely the first).
type Tuple2[T, U any] struct {
	Entity ecs.EntityID
	A      T
	B      U
}

// For2 materializes a query over component types T and U jointly: both
// values are read out and placed in the yielded Tuple2, instead of U being
// reduced to a presence check the way a plain With[U]() filter would. The
// smallest of T's and U's storages (plus any With filters) drives iteration;
// the rest are probed in O(1) per candidate entity.
func For2[T, U any](w *ecs.World, opts ...Option) Seq[Tuple2[T, U]] {
	primary := ecs.ComponentTypeOf[T]()
	secondary := ecs.ComponentTypeOf[U]()

	var spec filterSpec
	for _, opt := range opts {
		opt(&spec)
	}
	spec.with = append(spec.with, secondary)

	primaryView, candidates, probes, excludes, ok := planWithSpec(w, primary, spec)
	if !ok {
		return func(func(Tuple2[T, U]) bool) {}
	}
	secondaryView, err := w.ViewComponent(secondary)
	if err != nil {
		return func(func(Tuple2[T, U]) bool) {}
	}

	return func(yield func(Tuple2[T, U]) bool) {
		candidates(func(e ecs.EntityID) bool {
			if !matches(e, primaryView, probes, excludes) {
				return true
			}
			rawA, ok := primaryView.Get(e)
			if !ok {
				return true
			}
			a, ok := rawA.(T)
			if !ok {
				return true
			}
			rawB, ok := secondaryView.Get(e)
			if !ok {
				return true
			}
			b, ok := rawB.(U)
			if !ok {
				return true
			}
			return yield(Tuple2[T, U]{Entity: e, A: a, B: b})
		})
	}
}

// candidateFunc is a push-style iterator over candidate entity IDs, stopping
// early when fn returns false — the same pull-free shape as Seq.
type candidateFunc func(fn func(ecs.EntityID) bool)

// plan resolves a query's primary view, candidate iteration order, With
// probes and Without excludes from opts. ok is false when the primary type
// or any With filter's type was never registered.
func plan(w *ecs.World, primary ecs.ComponentType, opts []Option) (ecs.ComponentView, candidateFunc, []ecs.ComponentView, []ecs.ComponentView, bool) {
	var spec filterSpec
	for _, opt := range opts {
		opt(&spec)
	}
	return planWithSpec(w, primary, spec)
}

func planWithSpec(w *ecs.World, primary ecs.ComponentType, spec filterSpec) (ecs.ComponentView, candidateFunc, []ecs.ComponentView, []ecs.ComponentView, bool) {
	primaryView, err := w.ViewComponent(primary)
	if err != nil {
		return nil, nil, nil, nil, false
	}

	probes := make([]ecs.ComponentView, 0, len(spec.with))
	for _, t := range spec.with {
		view, err := w.ViewComponent(t)
		if err != nil {
			return nil, nil, nil, nil, false
		}
		probes = append(probes, view)
	}

	excludes := make([]ecs.ComponentView, 0, len(spec.without))
	for _, t := range spec.without {
		if view, err := w.ViewComponent(t); err == nil {
			excludes = append(excludes, view)
		}
	}

	smallest, smallestIsPrimary := pickSmallest(primaryView, probes)
	candidates := func(fn func(ecs.EntityID) bool) {
		for _, e := range denseEntitiesOf(smallest) {
			if !smallestIsPrimary && !primaryView.Has(e) {
				continue
			}
			if !fn(e) {
				return
			}
		}
	}

	return primaryView, candidates, probes, excludes, true
}

// matches reports whether e satisfies every With probe (the primary view
// itself is skipped since candidates already guarantees it) and no Without
// exclude. A probe that happened to drive iteration is re-checked here too;
// that's a redundant Has() call, not a correctness issue.
func matches(e ecs.EntityID, primaryView ecs.ComponentView, probes, excludes []ecs.ComponentView) bool {
	for _, p := range probes {
		if p == primaryView {
			continue
		}
		if !p.Has(e) {
			return false
		}
	}
	for _, x := range excludes {
		if x.Has(e) {
			return false
		}
	}
	return true
}

// pickSmallest returns whichever of primary or probes has the fewest
// entries, plus whether that choice was the primary view.
func pickSmallest(primary ecs.ComponentView, probes []ecs.ComponentView) (ecs.ComponentView, bool) {
	smallest := primary
	isPrimary := true
	for _, p := range probes {
		if p.Len() < smallest.Len() {
			smallest = p
			isPrimary = false
		}
	}
	return smallest, isPrimary
}

// denseEntitiesOf returns v's packed entity slice directly when v exposes
// one (every ecs/storage store does), falling back to a one-time Iterate
// collection otherwise.
func denseEntitiesOf(v ecs.ComponentView) []ecs.EntityID {
	if lister, ok := v.(storage.DenseEntityLister); ok {
		return lister.DenseEntities()
	}
	out := make([]ecs.EntityID, 0, v.Len())
	v.Iterate(func(e ecs.EntityID, _ any) bool {
		out = append(out, e)
		return true
	})
	return out
}
