package schedule

import (
	"context"
	"fmt"
	"time"

	ecs "github.com/forgecraft/ecsruntime"
	"github.com/forgecraft/ecsruntime/workerpool"
)

// shouldRun implements the TickInterval gate shared by schedules and
// systems: Every == 0 always runs; otherwise the schedule/system runs only
// on ticks congruent to Offset modulo Every.
func shouldRun(tick uint64, interval ecs.TickInterval) bool {
	every := uint64(interval.Every)
	if every == 0 {
		return true
	}
	offset := uint64(interval.Offset) % every
	return tick%every == offset
}

// runSchedule drives one schedule's execution graph for one tick: main
// stages run sequentially on the caller goroutine and merge each system's
// events immediately after it runs; every other stage submits the graph to
// the worker pool and merges events once the whole DAG settles. Either way,
// every system's command log is drained into the world's pending-command
// queue only after the whole schedule completes (spec.md §4.12, run_tick
// step c - the asymmetry with per-system event merging is intentional, see
// DESIGN.md's resolution of spec.md §9's third open question).
func runSchedule(ctx context.Context, st *scheduleState, pool *workerpool.Pool, world *ecs.World, dt time.Duration, tick uint64, logger ecs.Logger, lsPool *localStoragePool) (ecs.ScheduleSummary, error) {
	nodes := st.graph.nodes
	n := len(nodes)
	summary := ecs.ScheduleSummary{ScheduleID: st.id, Stage: st.stage, Tick: tick, SystemsTotal: n}
	summary.ComponentReads, summary.ComponentWrites, summary.ResourceReads, summary.ResourceWrites = aggregateAccess(nodes)
	if n == 0 {
		return summary, nil
	}

	main := st.stage == ecs.StageMain
	scheduleLogger := logger.With("schedule", string(st.id))

	locals := make([]*LocalStorage, n)
	for i := range locals {
		locals[i] = lsPool.get()
	}
	defer func() {
		for _, ls := range locals {
			lsPool.put(ls)
		}
	}()

	start := time.Now()
	run := func(i int) error {
		node := nodes[i]
		if !shouldRun(tick, node.desc.RunEvery) {
			summary.SystemsSkipped++
			return nil
		}
		sysLogger := scheduleLogger.With("system", node.name())
		ectx := &execContext{world: world, dt: dt, tick: tick, log: sysLogger, local: locals[i]}

		result := runNode(ctx, node, ectx, main)
		if result.Err != nil {
			return fmt.Errorf("%s: %w", node.name(), result.Err)
		}
		node.execCount.Add(1)
		if result.Skipped {
			summary.SystemsSkipped++
		} else {
			summary.SystemsExecuted++
		}
		if main {
			world.MergeEventQueue(locals[i].Events)
		}
		return nil
	}

	err := st.graph.execute(ctx, pool, main, run)
	summary.Duration = time.Since(start)

	if !main {
		for _, ls := range locals {
			world.MergeEventQueue(ls.Events)
		}
	}
	for _, ls := range locals {
		world.MergeCommands(ls.Commands.Drain())
	}

	if err != nil {
		summary.Error = err
	}
	return summary, err
}

// aggregateAccess collects the deduplicated, sorted union of every node's
// component and resource access, for ScheduleSummary's observability fields.
func aggregateAccess(nodes []*systemNode) (reads, writes []ecs.ComponentType, resReads, resWrites []ecs.ResourceID) {
	cr := map[ecs.ComponentType]struct{}{}
	cw := map[ecs.ComponentType]struct{}{}
	rr := map[ecs.ResourceID]struct{}{}
	rw := map[ecs.ResourceID]struct{}{}
	for _, n := range nodes {
		for _, q := range n.policy.Queries {
			for _, c := range q.Reads {
				cr[c] = struct{}{}
			}
			for _, c := range q.Writes {
				cw[c] = struct{}{}
			}
		}
		for _, r := range n.policy.Resources.Reads {
			rr[r] = struct{}{}
		}
		for _, r := range n.policy.Resources.Writes {
			rw[r] = struct{}{}
		}
	}
	for c := range cr {
		reads = append(reads, c)
	}
	for c := range cw {
		writes = append(writes, c)
	}
	for r := range rr {
		resReads = append(resReads, r)
	}
	for r := range rw {
		resWrites = append(resWrites, r)
	}
	ecs.SortComponentTypes(reads)
	ecs.SortComponentTypes(writes)
	sortResourceIDs(resReads)
	sortResourceIDs(resWrites)
	return
}

func sortResourceIDs(ids []ecs.ResourceID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// runNode executes one system, converting a main-stage panic into a logged
// error-carrying SystemResult rather than letting it unwind straight past
// the scheduler (parallel stages get the same treatment for free from
// workerpool.Pool.execNode's own recover).
func runNode(ctx context.Context, node *systemNode, ectx ecs.ExecutionContext, main bool) (result ecs.SystemResult) {
	if !main {
		return node.sys.Run(ctx, ectx)
	}
	defer func() {
		if r := recover(); r != nil {
			ectx.Logger().Error("system panicked", "panic", r)
			result = ecs.SystemResult{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return node.sys.Run(ctx, ectx)
}
