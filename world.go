package ecsruntime

import "sync"

// World encapsulates entity/component storage, resources, and the
// world-level event queue. The registry is single-threaded outside of
// ReserveEntity; all mutation during a schedule goes through command
// buffers, which are drained by ApplyCommands at the phase boundaries
// described in spec.md §4.12.
type World struct {
	registry  *EntityRegistry
	storage   StorageProvider
	resources *resourceMap
	events    *EventQueue

	pendingMu sync.Mutex
	pending   []Command
}

// WorldOption configures a World at construction time.
type WorldOption func(*World)

// NewWorld constructs a world with default registries and providers.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		registry:  NewEntityRegistry(),
		storage:   newStorageProvider(),
		resources: newResourceContainer(),
		events:    NewEventQueue(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WithEntityRegistry overrides the default registry.
func WithEntityRegistry(registry *EntityRegistry) WorldOption {
	return func(w *World) {
		if registry != nil {
			w.registry = registry
		}
	}
}

// WithStorageProvider overrides the default storage provider.
func WithStorageProvider(provider StorageProvider) WorldOption {
	return func(w *World) {
		if provider != nil {
			w.storage = provider
		}
	}
}

// WithEventQueue overrides the default world-level event queue.
func WithEventQueue(queue *EventQueue) WorldOption {
	return func(w *World) {
		if queue != nil {
			w.events = queue
		}
	}
}

// Registry exposes the backing entity registry.
func (w *World) Registry() *EntityRegistry { return w.registry }

// Storage returns the storage provider used by the world.
func (w *World) Storage() StorageProvider { return w.storage }

// Resources exposes the resource container.
func (w *World) Resources() *resourceMap { return w.resources }

// Events exposes the world-level event queue that systems read from.
func (w *World) Events() *EventQueue { return w.events }

// RegisterComponent allows callers to register component storage strategies.
func (w *World) RegisterComponent(t ComponentType, strategy StorageStrategy) error {
	return w.storage.RegisterComponent(t, strategy)
}

// ViewComponent retrieves a component view by type.
func (w *World) ViewComponent(t ComponentType) (ComponentView, error) {
	return w.storage.View(t)
}

// ApplyCommands executes deferred commands against the world immediately,
// bypassing the pending queue. Used directly by tests and by the scheduler
// once it has drained the pending queue for the phase boundary.
func (w *World) ApplyCommands(commands []Command) error {
	return w.storage.Apply(w, commands)
}

// MergeCommands appends a system's local command log onto the world's
// pending-command queue. Per spec.md, these become visible at the next
// schedule boundary, not immediately.
func (w *World) MergeCommands(commands []Command) {
	if len(commands) == 0 {
		return
	}
	w.pendingMu.Lock()
	w.pending = append(w.pending, commands...)
	w.pendingMu.Unlock()
}

// MergeEventQueue merges a system-local or schedule-local event queue into
// the world's event queue.
func (w *World) MergeEventQueue(q *EventQueue) {
	w.events.Merge(q)
}

// DrainPendingCommands removes and returns every command queued since the
// last drain, applying none of them. The scheduler calls this at a phase
// boundary and then passes the result to ApplyCommands.
func (w *World) DrainPendingCommands() []Command {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	drained := w.pending
	w.pending = nil
	return drained
}

// FlushPendingCommands drains and applies the pending-command queue in one
// step, matching the scheduler's "merge then apply before the next schedule
// runs" sequencing (spec.md, tick data-flow).
func (w *World) FlushPendingCommands() error {
	drained := w.DrainPendingCommands()
	if len(drained) == 0 {
		return nil
	}
	return w.ApplyCommands(drained)
}
