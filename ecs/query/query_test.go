package query

import (
	"testing"

	ecs "github.com/forgecraft/ecsruntime"
	"github.com/forgecraft/ecsruntime/ecs/storage"
)

type pos struct{ X int }
type frozen struct{}
type label struct{ Name string }
type unregistered struct{}

func newTestWorld(t *testing.T) *ecs.World {
	t.Helper()
	w := ecs.NewWorld()
	if err := ecs.RegisterComponent[pos](w, storage.NewSparseStrategy()); err != nil {
		t.Fatalf("register pos: %v", err)
	}
	if err := ecs.RegisterComponent[frozen](w, storage.NewTagStrategy()); err != nil {
		t.Fatalf("register frozen: %v", err)
	}
	return w
}

func TestForYieldsMatchingEntities(t *testing.T) {
	w := newTestWorld(t)
	a := w.Registry().Create()
	b := w.Registry().Create()

	if err := ecs.AddComponent[pos](a, pos{X: 1}).Apply(w); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := ecs.AddComponent[pos](b, pos{X: 2}).Apply(w); err != nil {
		t.Fatalf("add b: %v", err)
	}

	results := Collect(For[pos](w))
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestForWithFilter(t *testing.T) {
	w := newTestWorld(t)
	a := w.Registry().Create()
	b := w.Registry().Create()

	ecs.AddComponent[pos](a, pos{X: 1}).Apply(w)
	ecs.AddComponent[pos](b, pos{X: 2}).Apply(w)
	ecs.AddComponent[frozen](a, frozen{}).Apply(w)

	results := Collect(For[pos](w, With[frozen]()))
	if len(results) != 1 || results[0].Entity != a {
		t.Fatalf("expected only frozen entity a, got %v", results)
	}
}

func TestForWithoutFilter(t *testing.T) {
	w := newTestWorld(t)
	a := w.Registry().Create()
	b := w.Registry().Create()

	ecs.AddComponent[pos](a, pos{X: 1}).Apply(w)
	ecs.AddComponent[pos](b, pos{X: 2}).Apply(w)
	ecs.AddComponent[frozen](a, frozen{}).Apply(w)

	results := Collect(For[pos](w, Without[frozen]()))
	if len(results) != 1 || results[0].Entity != b {
		t.Fatalf("expected only unfrozen entity b, got %v", results)
	}
}

func TestFor2YieldsBothComponentValues(t *testing.T) {
	w := newTestWorld(t)
	a := w.Registry().Create()
	b := w.Registry().Create()

	if err := ecs.RegisterComponent[label](w, storage.NewSparseStrategy()); err != nil {
		t.Fatalf("register label: %v", err)
	}

	ecs.AddComponent[pos](a, pos{X: 1}).Apply(w)
	ecs.AddComponent[label](a, label{Name: "a"}).Apply(w)
	ecs.AddComponent[pos](b, pos{X: 2}).Apply(w)
	// b has no label, so it must not appear in the joined results.

	results := Collect(For2[pos, label](w))
	if len(results) != 1 {
		t.Fatalf("expected 1 joined result, got %d", len(results))
	}
	if results[0].Entity != a || results[0].A.X != 1 || results[0].B.Name != "a" {
		t.Fatalf("unexpected joined tuple: %+v", results[0])
	}
}

func TestFor2RespectsWithoutFilter(t *testing.T) {
	w := newTestWorld(t)
	a := w.Registry().Create()
	b := w.Registry().Create()

	if err := ecs.RegisterComponent[label](w, storage.NewSparseStrategy()); err != nil {
		t.Fatalf("register label: %v", err)
	}

	ecs.AddComponent[pos](a, pos{X: 1}).Apply(w)
	ecs.AddComponent[label](a, label{Name: "a"}).Apply(w)
	ecs.AddComponent[pos](b, pos{X: 2}).Apply(w)
	ecs.AddComponent[label](b, label{Name: "b"}).Apply(w)
	ecs.AddComponent[frozen](a, frozen{}).Apply(w)

	results := Collect(For2[pos, label](w, Without[frozen]()))
	if len(results) != 1 || results[0].Entity != b {
		t.Fatalf("expected only unfrozen entity b, got %v", results)
	}
}

func TestFor2UnregisteredTypeYieldsEmpty(t *testing.T) {
	w := newTestWorld(t)
	results := Collect(For2[pos, unregistered](w))
	if len(results) != 0 {
		t.Fatalf("expected no results for unregistered component, got %v", results)
	}
}

func TestAdapterChainTakeStopsEarly(t *testing.T) {
	evaluated := 0
	src := Seq[int](func(yield func(int) bool) {
		for i := 0; i < 100; i++ {
			if !yield(i) {
				return
			}
		}
	})

	filtered := Filter(src, func(v int) bool {
		evaluated++
		return v%2 == 0
	})

	out := Collect(Take(filtered, 3))
	if len(out) != 3 {
		t.Fatalf("expected 3 items, got %d", len(out))
	}
	if evaluated > 6 {
		t.Fatalf("take(3) after filter evaluated too far upstream: %d predicate calls", evaluated)
	}
}

func TestTakeZeroYieldsNothing(t *testing.T) {
	called := false
	src := Seq[int](func(yield func(int) bool) {
		called = true
		yield(1)
	})
	out := Collect(Take(src, 0))
	if len(out) != 0 {
		t.Fatalf("expected no items from take(0)")
	}
	if called {
		t.Fatalf("take(0) must not pull from upstream at all")
	}
}

func TestEnumerateStartsAtZero(t *testing.T) {
	src := Seq[string](func(yield func(string) bool) {
		yield("a")
		yield("b")
	})
	out := Collect(Enumerate(src))
	if out[0].Index != 0 || out[1].Index != 1 {
		t.Fatalf("expected indices 0,1, got %d,%d", out[0].Index, out[1].Index)
	}
}

func TestStepBy(t *testing.T) {
	src := Seq[int](func(yield func(int) bool) {
		for i := 0; i < 6; i++ {
			if !yield(i) {
				return
			}
		}
	})
	out := Collect(StepBy(src, 2))
	want := []int{0, 2, 4}
	if len(out) != len(want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, out)
		}
	}
}
