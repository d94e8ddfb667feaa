package ecsruntime

import (
	"reflect"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// TypeID is a stable, cheaply-comparable identifier derived from a Go type.
// It replaces the CRTP/compile-time-reflection identifiers of the source
// engine: rather than generating a type tag at compile time, we hash the
// type's reflect.Type.String() form once at first use and cache the result.
// That form names the package, not its import path, so identically named
// types in two packages with the same package name share a TypeID.
type TypeID uint64

var (
	typeIDCache   sync.Map // reflect.Type -> TypeID
	typeNameCache sync.Map // TypeID -> string
)

func typeIDFor(t reflect.Type) TypeID {
	if v, ok := typeIDCache.Load(t); ok {
		return v.(TypeID)
	}
	name := t.String()
	id := TypeID(xxhash.Sum64String(name))
	typeIDCache.Store(t, id)
	typeNameCache.Store(id, name)
	return id
}

// typeIDOf derives the TypeID for T, registering its display name.
func typeIDOf[T any]() TypeID {
	var zero T
	return typeIDFor(reflect.TypeOf(&zero).Elem())
}

// String renders the type's display name if known, else a numeric fallback.
func (id TypeID) String() string {
	if v, ok := typeNameCache.Load(id); ok {
		return v.(string)
	}
	return "TypeID(unknown)"
}

// ComponentType identifies a registered component type.
type ComponentType TypeID

func (c ComponentType) String() string { return TypeID(c).String() }

// ComponentTypeOf derives the ComponentType for T.
func ComponentTypeOf[T any]() ComponentType { return ComponentType(typeIDOf[T]()) }

// ResourceID identifies a registered resource type.
type ResourceID TypeID

func (r ResourceID) String() string { return TypeID(r).String() }

// ResourceIDOf derives the ResourceID for T.
func ResourceIDOf[T any]() ResourceID { return ResourceID(typeIDOf[T]()) }

// EventID identifies a registered event type.
type EventID TypeID

func (e EventID) String() string { return TypeID(e).String() }

// EventIDOf derives the EventID for T.
func EventIDOf[T any]() EventID { return EventID(typeIDOf[T]()) }

// SystemID identifies a system type, independent of which schedule(s) it is
// registered in (spec: "the same system type may be registered in multiple
// schedules; each registration is an independent node").
type SystemID TypeID

func (s SystemID) String() string { return TypeID(s).String() }

// SystemIDOf derives the SystemID for S.
func SystemIDOf[S any]() SystemID { return SystemID(typeIDOf[S]()) }

// SystemIDForValue derives the SystemID of a system from a runtime value,
// for callers (the scheduler) that only hold a System interface and cannot
// name its concrete type as a type parameter. Pointer receivers and value
// receivers of the same underlying type yield the same id, since typeIDFor
// is keyed on the dereferenced element type.
func SystemIDForValue(sys System) SystemID {
	t := reflect.TypeOf(sys)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return SystemID(typeIDFor(t))
}

// SortComponentTypes sorts a slice of component types by numeric id, giving
// the deterministic ordering access policies rely on for set intersection.
func SortComponentTypes(types []ComponentType) {
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
}
