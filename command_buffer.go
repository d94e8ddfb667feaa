package ecsruntime

import "sync"

// CommandBuffer accumulates deferred commands during a scheduler tick.
// CommandBufferPool reuses CommandBuffer values across ticks; because Drain
// hands the queued slice to the caller, a reused buffer starts from an empty
// slice rather than reusing the old backing array.
type CommandBuffer struct {
	commands []Command
}

// NewCommandBuffer creates an empty buffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{}
}

// Len reports how many commands are queued.
func (b *CommandBuffer) Len() int {
	return len(b.commands)
}

// Push appends a command to the buffer.
func (b *CommandBuffer) Push(cmd Command) {
	if cmd == nil {
		return
	}
	b.commands = append(b.commands, cmd)
}

// Drain returns queued commands and resets the buffer. This is the "flush"
// of spec.md §4.7: it moves the buffered commands into the caller's
// system-local command log.
func (b *CommandBuffer) Drain() []Command {
	drained := b.commands
	b.commands = nil
	return drained
}

// Snapshot returns the current command count so callers can restore later.
func (b *CommandBuffer) Snapshot() int {
	return len(b.commands)
}

// Restore truncates the command buffer back to the provided snapshot.
func (b *CommandBuffer) Restore(snapshot int) {
	if snapshot < 0 {
		snapshot = 0
	}
	if snapshot >= len(b.commands) {
		return
	}
	b.commands = b.commands[:snapshot]
}

// Entity returns a chainable builder that targets every subsequent call at
// id. id is typically a freshly reserved handle (World.Registry().
// ReserveEntity()) or a live one read from a query.
func (b *CommandBuffer) Entity(id EntityID) *EntityCommands {
	return &EntityCommands{buf: b, entity: id}
}

// EntityCommands is a chainable, entity-scoped view over a CommandBuffer,
// covering the fixed command set of spec.md §4.7.
type EntityCommands struct {
	buf    *CommandBuffer
	entity EntityID
}

// Destroy enqueues NewDestroyEntityCommand for the target entity.
func (e *EntityCommands) Destroy() *EntityCommands {
	e.buf.Push(NewDestroyEntityCommand(e.entity))
	return e
}

// TryDestroy enqueues NewTryDestroyEntityCommand for the target entity.
func (e *EntityCommands) TryDestroy() *EntityCommands {
	e.buf.Push(NewTryDestroyEntityCommand(e.entity))
	return e
}

// Remove enqueues RemoveComponent[T] for the target entity.
func (e *EntityCommands) Remove(t ComponentType) *EntityCommands {
	e.buf.Push(removeComponentCommand{entity: e.entity, component: t, strict: true})
	return e
}

// TryRemove enqueues TryRemoveComponent[T] for the target entity.
func (e *EntityCommands) TryRemove(t ComponentType) *EntityCommands {
	e.buf.Push(removeComponentCommand{entity: e.entity, component: t, strict: false})
	return e
}

// RemoveMany enqueues RemoveComponents for the target entity.
func (e *EntityCommands) RemoveMany(types ...ComponentType) *EntityCommands {
	e.buf.Push(RemoveComponents(e.entity, types...))
	return e
}

// TryRemoveMany enqueues TryRemoveComponents for the target entity.
func (e *EntityCommands) TryRemoveMany(types ...ComponentType) *EntityCommands {
	e.buf.Push(TryRemoveComponents(e.entity, types...))
	return e
}

// Clear enqueues ClearComponents for the target entity.
func (e *EntityCommands) Clear() *EntityCommands {
	e.buf.Push(ClearComponents(e.entity))
	return e
}

// AddEntity is a package-level generic helper (methods on EntityCommands
// cannot introduce their own type parameters in Go) that enqueues
// AddComponent[T] against e's target entity.
func AddEntity[T any](e *EntityCommands, value T) *EntityCommands {
	e.buf.Push(AddComponent[T](e.entity, value))
	return e
}

// TryAddEntity enqueues TryAddComponent[T] against e's target entity.
func TryAddEntity[T any](e *EntityCommands, value T) *EntityCommands {
	e.buf.Push(TryAddComponent[T](e.entity, value))
	return e
}

// AddMany enqueues AddComponents against e's target entity.
func (e *EntityCommands) AddMany(values ...ComponentValue) *EntityCommands {
	e.buf.Push(AddComponents(e.entity, values...))
	return e
}

// TryAddMany enqueues TryAddComponents against e's target entity.
func (e *EntityCommands) TryAddMany(values ...ComponentValue) *EntityCommands {
	e.buf.Push(TryAddComponents(e.entity, values...))
	return e
}

// CommandBufferPool reuses buffers to reduce allocations.
type CommandBufferPool struct {
	pool sync.Pool
}

// NewCommandBufferPool constructs a pool that returns fresh buffers.
func NewCommandBufferPool() *CommandBufferPool {
	p := &CommandBufferPool{}
	p.pool.New = func() any { return NewCommandBuffer() }
	return p
}

// Get retrieves a buffer from the pool.
func (p *CommandBufferPool) Get() *CommandBuffer {
	return p.pool.Get().(*CommandBuffer)
}

// Put returns a buffer to the pool after clearing it.
func (p *CommandBufferPool) Put(buf *CommandBuffer) {
	if buf == nil {
		return
	}
	buf.Drain()
	p.pool.Put(buf)
}
