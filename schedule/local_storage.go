// Package schedule implements spec.md §4.9-§4.13: access-policy conflict
// analysis, system registries and ordering, per-schedule execution graphs,
// and the top-level scheduler that ticks every schedule each frame. It
// depends on both the root ecsruntime package and ecs/access, which already
// depends on ecsruntime — keeping the conflict analyzer in its own package
// is what lets it import the root package without a cycle.
package schedule

import ecs "github.com/forgecraft/ecsruntime"

// LocalStorage is one system invocation's private command log and event
// queue (spec.md §4.8): a command buffer for deferred structural changes
// plus an event queue scoped to this system alone. The scheduler drains both
// into the world at the phase boundaries described in spec.md §4.12 - after
// each system for the main stage, after the whole schedule otherwise.
type LocalStorage struct {
	Commands *ecs.CommandBuffer
	Events   *ecs.EventQueue
}

// NewLocalStorage allocates a fresh, empty LocalStorage.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		Commands: ecs.NewCommandBuffer(),
		Events:   ecs.NewEventQueue(),
	}
}

// Clear empties both the command log and the event queue, for pool reuse.
func (s *LocalStorage) Clear() {
	s.Commands.Drain()
	s.Events.Clear()
}

// localStoragePool reuses LocalStorage instances across ticks, the same
// allocation-avoidance discipline CommandBufferPool already applies to bare
// command buffers (command_buffer.go).
type localStoragePool struct {
	free []*LocalStorage
}

func newLocalStoragePool() *localStoragePool {
	return &localStoragePool{}
}

func (p *localStoragePool) get() *LocalStorage {
	if n := len(p.free); n > 0 {
		ls := p.free[n-1]
		p.free = p.free[:n-1]
		return ls
	}
	return NewLocalStorage()
}

func (p *localStoragePool) put(ls *LocalStorage) {
	if ls == nil {
		return
	}
	ls.Clear()
	p.free = append(p.free, ls)
}
