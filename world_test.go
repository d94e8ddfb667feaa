package ecsruntime_test

import (
	"testing"

	ecs "github.com/forgecraft/ecsruntime"
	"github.com/forgecraft/ecsruntime/ecs/storage"
)

type position struct{ X, Y int }

func TestWorldRegisterComponent(t *testing.T) {
	world := ecs.NewWorld()

	if err := ecs.RegisterComponent[position](world, storage.NewSparseStrategy()); err != nil {
		t.Fatalf("register component: %v", err)
	}

	if err := ecs.RegisterComponent[position](world, storage.NewSparseStrategy()); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	view, err := ecs.ViewComponent[position](world)
	if err != nil {
		t.Fatalf("view component: %v", err)
	}
	if view.ComponentType() != ecs.ComponentTypeOf[position]() {
		t.Fatalf("unexpected component type: %v", view.ComponentType())
	}
}

func TestResourceContainer(t *testing.T) {
	world := ecs.NewWorld()
	ecs.InsertResource(world.Resources(), 123)

	value, ok := ecs.GetResource[int](world.Resources())
	if !ok {
		t.Fatalf("expected resource")
	}
	if *value != 123 {
		t.Fatalf("unexpected resource value: %v", *value)
	}

	seen := 0
	world.Resources().Range(func(k ecs.ResourceID, v any) bool {
		seen++
		return true
	})
	if seen == 0 {
		t.Fatalf("expected Range to visit entries")
	}

	if !ecs.RemoveResource[int](world.Resources()) {
		t.Fatalf("expected resource to be removed")
	}
	if _, ok := ecs.GetResource[int](world.Resources()); ok {
		t.Fatalf("resource should be deleted")
	}
}
