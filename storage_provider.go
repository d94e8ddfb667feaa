package ecsruntime

import "sync"

type storageProvider struct {
	mu     sync.RWMutex
	stores map[ComponentType]ComponentStore
	order  []ComponentType
}

func newStorageProvider() *storageProvider {
	return &storageProvider{stores: make(map[ComponentType]ComponentStore)}
}

func (p *storageProvider) RegisterComponent(t ComponentType, strategy StorageStrategy) error {
	if strategy == nil {
		return ErrNilStorageStrategy
	}

	store := strategy.NewStore(t)
	if store == nil {
		return ErrNilComponentStore
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.stores[t]; exists {
		return ErrComponentAlreadyRegistered
	}

	p.stores[t] = store
	p.order = append(p.order, t)
	return nil
}

func (p *storageProvider) View(t ComponentType) (ComponentView, error) {
	p.mu.RLock()
	store, ok := p.stores[t]
	p.mu.RUnlock()

	if !ok {
		return nil, ErrComponentNotRegistered
	}

	return store, nil
}

func (p *storageProvider) Apply(world *World, commands []Command) error {
	for _, cmd := range commands {
		if cmd == nil {
			continue
		}
		if err := cmd.Apply(world); err != nil {
			return err
		}
	}
	return nil
}

// ComponentTypes returns every registered component type in registration
// order. Used by ClearComponents and the destroy command to sweep every
// store for one entity.
func (p *storageProvider) ComponentTypes() []ComponentType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ComponentType, len(p.order))
	copy(out, p.order)
	return out
}

var _ StorageProvider = (*storageProvider)(nil)

// RegisterComponent registers component type T against the world's storage
// provider using strategy, deriving the ComponentType from T so callers
// never have to compute or remember it.
func RegisterComponent[T any](w *World, strategy StorageStrategy) error {
	return w.RegisterComponent(ComponentTypeOf[T](), strategy)
}

// ViewComponent retrieves the typed component view for T.
func ViewComponent[T any](w *World) (ComponentView, error) {
	return w.ViewComponent(ComponentTypeOf[T]())
}

// HasComponent returns a predicate reporting whether an entity carries a
// component of type T.
func HasComponent[T any](w *World) (func(EntityID) bool, error) {
	view, err := ViewComponent[T](w)
	if err != nil {
		return nil, err
	}
	return view.Has, nil
}

// GetComponent returns entity's component of type T, or false if absent or
// the type was never registered.
func GetComponent[T any](w *World, entity EntityID) (T, bool) {
	var zero T
	view, err := ViewComponent[T](w)
	if err != nil {
		return zero, false
	}
	v, ok := view.Get(entity)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
