// Package query implements the lazy query engine and adapter chain of
// spec.md §4.6: materialize over the smallest matching component storage,
// probe the remaining storages' sparse sets in O(1) per entity, then stack
// lazy adapters over the resulting sequence.
package query

// Seq is a lazy pull-free sequence: yield is called once per item in order,
// and returning false from yield stops iteration early. Adapters below
// compose Seq values without materializing intermediate slices, so take(n)
// after filter never evaluates the predicate past the n-th yielded item.
type Seq[T any] func(yield func(T) bool)

// Filter drops items for which pred returns false.
func Filter[T any](s Seq[T], pred func(T) bool) Seq[T] {
	return func(yield func(T) bool) {
		s(func(v T) bool {
			if !pred(v) {
				return true
			}
			return yield(v)
		})
	}
}

// Map transforms each item with f. Implemented as a free function, not a
// method, since a Seq[T] method cannot introduce the additional type
// parameter U that Map needs.
func Map[T, U any](s Seq[T], f func(T) U) Seq[U] {
	return func(yield func(U) bool) {
		s(func(v T) bool {
			return yield(f(v))
		})
	}
}

// Take bounds the sequence to its first n items and stops pulling upstream
// once satisfied, so upstream side effects (Inspect, predicate evaluation)
// never run past item n.
func Take[T any](s Seq[T], n int) Seq[T] {
	return func(yield func(T) bool) {
		if n <= 0 {
			return
		}
		count := 0
		s(func(v T) bool {
			if !yield(v) {
				return false
			}
			count++
			return count < n
		})
	}
}

// Skip drops the first n items, yielding the rest.
func Skip[T any](s Seq[T], n int) Seq[T] {
	return func(yield func(T) bool) {
		skipped := 0
		s(func(v T) bool {
			if skipped < n {
				skipped++
				return true
			}
			return yield(v)
		})
	}
}

// TakeWhile yields items until pred first returns false, then stops.
func TakeWhile[T any](s Seq[T], pred func(T) bool) Seq[T] {
	return func(yield func(T) bool) {
		s(func(v T) bool {
			if !pred(v) {
				return false
			}
			return yield(v)
		})
	}
}

// SkipWhile drops items while pred holds, then yields everything after.
func SkipWhile[T any](s Seq[T], pred func(T) bool) Seq[T] {
	return func(yield func(T) bool) {
		gating := true
		s(func(v T) bool {
			if gating {
				if pred(v) {
					return true
				}
				gating = false
			}
			return yield(v)
		})
	}
}

// Indexed pairs a zero-based position with a value, produced by Enumerate.
type Indexed[T any] struct {
	Index int
	Value T
}

// Enumerate yields (index, value) pairs starting at 0.
func Enumerate[T any](s Seq[T]) Seq[Indexed[T]] {
	return func(yield func(Indexed[T]) bool) {
		i := 0
		s(func(v T) bool {
			ok := yield(Indexed[T]{Index: i, Value: v})
			i++
			return ok
		})
	}
}

// Inspect calls f for side effects on every item without modifying it.
func Inspect[T any](s Seq[T], f func(T)) Seq[T] {
	return func(yield func(T) bool) {
		s(func(v T) bool {
			f(v)
			return yield(v)
		})
	}
}

// StepBy keeps every k-th element, starting with the first.
func StepBy[T any](s Seq[T], k int) Seq[T] {
	if k <= 1 {
		return s
	}
	return func(yield func(T) bool) {
		i := 0
		s(func(v T) bool {
			keep := i%k == 0
			i++
			if !keep {
				return true
			}
			return yield(v)
		})
	}
}

// Into materializes s into sink, appending every item in order.
func Into[T any](s Seq[T], sink []T) []T {
	s(func(v T) bool {
		sink = append(sink, v)
		return true
	})
	return sink
}

// Collect materializes s into a fresh slice.
func Collect[T any](s Seq[T]) []T {
	return Into(s, nil)
}
