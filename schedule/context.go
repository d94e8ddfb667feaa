package schedule

import (
	"time"

	ecs "github.com/forgecraft/ecsruntime"
)

// execContext is the ecs.ExecutionContext handed to every system invocation.
// It is built fresh per system rather than shared, since its Logger field
// changes per system (each gets a logger tagged with its own name) even
// though it shares the schedule's world and local-storage pool.
type execContext struct {
	world *ecs.World
	dt    time.Duration
	tick  uint64
	log   ecs.Logger
	local *LocalStorage
}

func (c *execContext) World() *ecs.World { return c.world }

func (c *execContext) TimeDelta() time.Duration { return c.dt }

func (c *execContext) TickIndex() uint64 { return c.tick }

func (c *execContext) Logger() ecs.Logger { return c.log }

func (c *execContext) Defer(cmd ecs.Command) { c.local.Commands.Push(cmd) }

func (c *execContext) Events() *ecs.EventQueue { return c.local.Events }

var _ ecs.ExecutionContext = (*execContext)(nil)
