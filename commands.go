package ecsruntime

import "fmt"

// ComponentValue pairs a component type with a boxed value, used by the
// N-ary AddComponents/RemoveComponents commands. Go has no parameter pack
// over distinct types the way the source engine's add_many<Ts...> does;
// C[T] is the idiomatic stand-in, built once per value with the type
// captured via the type parameter.
type ComponentValue struct {
	Type  ComponentType
	Value any
}

// C boxes v as a ComponentValue for use with AddComponents/TryAddComponents.
func C[T any](v T) ComponentValue {
	return ComponentValue{Type: ComponentTypeOf[T](), Value: v}
}

// NewCreateEntityCommand enqueues a new entity creation. If target is
// non-nil it receives the allocated ID once the command applies.
func NewCreateEntityCommand(target *EntityID) Command {
	return createEntityCommand{target: target}
}

// NewDestroyEntityCommand enqueues an entity deletion. Destroying an
// already-dead handle is a contract violation (spec.md §7): it asserts in
// strict mode, logs and skips in non-strict mode.
func NewDestroyEntityCommand(id EntityID) Command {
	return destroyEntityCommand{entity: id, strict: true}
}

// NewTryDestroyEntityCommand enqueues an entity deletion that silently does
// nothing if the handle is already stale.
func NewTryDestroyEntityCommand(id EntityID) Command {
	return destroyEntityCommand{entity: id, strict: false}
}

// AddComponent enqueues an unconditional component write: if the entity
// already carries a component of type T, it is replaced.
func AddComponent[T any](id EntityID, value T) Command {
	return addComponentCommand{entity: id, component: ComponentTypeOf[T](), value: value, strict: true}
}

// TryAddComponent enqueues a component write that is a no-op if the entity
// already carries a component of type T.
func TryAddComponent[T any](id EntityID, value T) Command {
	return addComponentCommand{entity: id, component: ComponentTypeOf[T](), value: value, strict: false}
}

// AddComponents enqueues an unconditional write of every value, as one
// command per value, applied in argument order.
func AddComponents(id EntityID, values ...ComponentValue) Command {
	return multiAddComponentCommand{entity: id, values: values, strict: true}
}

// TryAddComponents enqueues a write of every value that is a no-op, per
// value, when the entity already carries that component type.
func TryAddComponents(id EntityID, values ...ComponentValue) Command {
	return multiAddComponentCommand{entity: id, values: values, strict: false}
}

// RemoveComponent enqueues removal of the entity's component of type T. It
// is a contract violation if the component is not present.
func RemoveComponent[T any](id EntityID) Command {
	return removeComponentCommand{entity: id, component: ComponentTypeOf[T](), strict: true}
}

// TryRemoveComponent enqueues a removal that silently does nothing if the
// entity does not carry a component of type T.
func TryRemoveComponent[T any](id EntityID) Command {
	return removeComponentCommand{entity: id, component: ComponentTypeOf[T](), strict: false}
}

// RemoveComponents enqueues removal of every named component type.
func RemoveComponents(id EntityID, types ...ComponentType) Command {
	return multiRemoveComponentCommand{entity: id, types: types, strict: true}
}

// TryRemoveComponents enqueues removal of every named component type,
// skipping any type not present on the entity.
func TryRemoveComponents(id EntityID, types ...ComponentType) Command {
	return multiRemoveComponentCommand{entity: id, types: types, strict: false}
}

// ClearComponents enqueues removal of every component registered in the
// world from the given entity.
func ClearComponents(id EntityID) Command {
	return clearComponentsCommand{entity: id}
}

// NewFunctionCommand wraps an arbitrary closure as a Command, the escape
// hatch for mutations the fixed command set does not cover.
func NewFunctionCommand(fn func(world *World) error) Command {
	return functionCommand{fn: fn}
}

type createEntityCommand struct {
	target *EntityID
}

type destroyEntityCommand struct {
	entity EntityID
	strict bool
}

type addComponentCommand struct {
	entity    EntityID
	component ComponentType
	value     any
	strict    bool
}

type multiAddComponentCommand struct {
	entity EntityID
	values []ComponentValue
	strict bool
}

type removeComponentCommand struct {
	entity    EntityID
	component ComponentType
	strict    bool
}

type multiRemoveComponentCommand struct {
	entity EntityID
	types  []ComponentType
	strict bool
}

type clearComponentsCommand struct {
	entity EntityID
}

type functionCommand struct {
	fn func(world *World) error
}

func (c createEntityCommand) Apply(world *World) error {
	id := world.registry.Create()
	if c.target != nil {
		*c.target = id
	}
	return nil
}

func (c destroyEntityCommand) Apply(world *World) error {
	if c.entity.IsZero() {
		if c.strict {
			Invariant(false, "destroy zero entity")
			return fmt.Errorf("%w: zero entity", ErrEntityInvalid)
		}
		return nil
	}
	if !world.registry.Destroy(c.entity) {
		if c.strict {
			Invariant(false, "destroy stale entity %v", c.entity)
			return fmt.Errorf("%w: stale entity %v", ErrEntityInvalid, c.entity)
		}
		return nil
	}
	return clearComponentsCommand{entity: c.entity}.Apply(world)
}

func setComponent(world *World, entity EntityID, component ComponentType, value any) error {
	store, err := world.storage.View(component)
	if err != nil {
		return err
	}
	writable, ok := store.(ComponentStore)
	if !ok {
		return fmt.Errorf("ecsruntime: component %s is not writable", component)
	}
	return writable.Set(entity, value)
}

func (c addComponentCommand) Apply(world *World) error {
	if c.entity.IsZero() {
		if c.strict {
			Invariant(false, "add component to zero entity")
			return fmt.Errorf("%w: zero entity", ErrEntityInvalid)
		}
		return nil
	}
	if !c.strict {
		if store, err := world.storage.View(c.component); err == nil && store.Has(c.entity) {
			return nil
		}
	}
	return setComponent(world, c.entity, c.component, c.value)
}

func (c multiAddComponentCommand) Apply(world *World) error {
	for _, v := range c.values {
		cmd := addComponentCommand{entity: c.entity, component: v.Type, value: v.Value, strict: c.strict}
		if err := cmd.Apply(world); err != nil {
			return err
		}
	}
	return nil
}

func (c removeComponentCommand) Apply(world *World) error {
	if c.entity.IsZero() {
		if c.strict {
			Invariant(false, "remove component from zero entity")
			return fmt.Errorf("%w: zero entity", ErrEntityInvalid)
		}
		return nil
	}
	store, err := world.storage.View(c.component)
	if err != nil {
		return err
	}
	writable, ok := store.(ComponentStore)
	if !ok {
		return fmt.Errorf("ecsruntime: component %s is not writable", c.component)
	}
	if !writable.Has(c.entity) {
		if c.strict {
			Invariant(false, "remove absent component %s from %v", c.component, c.entity)
			return fmt.Errorf("%w: %s on %v", ErrComponentNotPresent, c.component, c.entity)
		}
		return nil
	}
	writable.Remove(c.entity)
	return nil
}

func (c multiRemoveComponentCommand) Apply(world *World) error {
	for _, t := range c.types {
		cmd := removeComponentCommand{entity: c.entity, component: t, strict: c.strict}
		if err := cmd.Apply(world); err != nil {
			return err
		}
	}
	return nil
}

func (c clearComponentsCommand) Apply(world *World) error {
	tryRemove, ok := world.storage.(interface{ ComponentTypes() []ComponentType })
	if !ok {
		return nil
	}
	for _, t := range tryRemove.ComponentTypes() {
		store, err := world.storage.View(t)
		if err != nil {
			continue
		}
		if writable, ok := store.(ComponentStore); ok {
			writable.Remove(c.entity)
		}
	}
	return nil
}

func (c functionCommand) Apply(world *World) error {
	if c.fn == nil {
		return nil
	}
	return c.fn(world)
}

var (
	_ Command = createEntityCommand{}
	_ Command = destroyEntityCommand{}
	_ Command = addComponentCommand{}
	_ Command = multiAddComponentCommand{}
	_ Command = removeComponentCommand{}
	_ Command = multiRemoveComponentCommand{}
	_ Command = clearComponentsCommand{}
	_ Command = functionCommand{}
)
