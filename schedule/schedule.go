package schedule

import (
	"fmt"

	ecs "github.com/forgecraft/ecsruntime"
)

// scheduleState is one registered schedule: its systems (as frozen
// systemNodes), its own interval/error-policy/priority, its inter-schedule
// Before/After constraints, and its cached executionGraph once built.
type scheduleState struct {
	id          ecs.ScheduleID
	stage       ecs.StageKind
	nodes       []*systemNode
	interval    ecs.TickInterval
	errorPolicy ecs.ErrorPolicy
	priority    int
	before      []ecs.ScheduleID
	after       []ecs.ScheduleID
	lastRun     uint64

	graph *executionGraph
}

func newScheduleState(cfg ecs.ScheduleConfig, sets *setRegistry) (*scheduleState, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("schedule: schedule requires non-empty ID")
	}

	nodes := make([]*systemNode, 0, len(cfg.Systems))
	for _, sys := range cfg.Systems {
		if sys == nil {
			continue
		}
		node := newSystemNode(sys)
		if cfg.Stage == ecs.StageParallel {
			if !node.desc.AsyncAllowed {
				return nil, fmt.Errorf("schedule: system %s is not marked AsyncAllowed but was registered in parallel schedule %s", node.name(), cfg.ID)
			}
			if len(node.policy.Resources.Writes) > 0 {
				return nil, fmt.Errorf("%w: system %s writes resource(s) not tagged thread-safe in parallel schedule %s", ecs.ErrAsyncResourceWritesNotSupported, node.name(), cfg.ID)
			}
		}
		nodes = append(nodes, node)
		for _, set := range node.desc.Sets {
			sets.addMember(set, node.id)
		}
	}

	return &scheduleState{
		id:          cfg.ID,
		stage:       cfg.Stage,
		nodes:       nodes,
		interval:    cfg.Interval,
		errorPolicy: cfg.ErrorPolicy,
		priority:    cfg.Priority,
		before:      append([]ecs.ScheduleID(nil), cfg.Before...),
		after:       append([]ecs.ScheduleID(nil), cfg.After...),
	}, nil
}

// scheduleHandle is the ScheduleHandle returned by RegisterSchedule.
type scheduleHandle struct{ id ecs.ScheduleID }

func (h scheduleHandle) ID() ecs.ScheduleID { return h.id }
