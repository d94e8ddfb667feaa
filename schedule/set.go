package schedule

import (
	"sort"
	"sync"

	ecs "github.com/forgecraft/ecsruntime"
)

// systemSetInfo is one entry of the global system-set map of spec.md §4.10:
// "System-sets are maintained in a separate global map from set-id to
// {members, before_sets, after_sets}."
type systemSetInfo struct {
	members    map[ecs.SystemID]struct{}
	beforeSets map[ecs.SystemSetID]struct{}
	afterSets  map[ecs.SystemSetID]struct{}
}

// setRegistry is the scheduler-wide system-set registry, independent of any
// one schedule: the same set id can gather members registered into
// different schedules, and declareBefore/declareAfter constraints apply
// wherever both sets happen to share a schedule (graph.go's buildExecutionGraph
// filters to the current schedule's members).
type setRegistry struct {
	mu   sync.Mutex
	sets map[ecs.SystemSetID]*systemSetInfo
}

func newSetRegistry() *setRegistry {
	return &setRegistry{sets: make(map[ecs.SystemSetID]*systemSetInfo)}
}

func (r *setRegistry) ensureLocked(id ecs.SystemSetID) *systemSetInfo {
	info, ok := r.sets[id]
	if !ok {
		info = &systemSetInfo{
			members:    make(map[ecs.SystemID]struct{}),
			beforeSets: make(map[ecs.SystemSetID]struct{}),
			afterSets:  make(map[ecs.SystemSetID]struct{}),
		}
		r.sets[id] = info
	}
	return info
}

// addMember records sys as belonging to set.
func (r *setRegistry) addMember(set ecs.SystemSetID, sys ecs.SystemID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked(set).members[sys] = struct{}{}
}

// declareBefore records that every member of a must run before every member
// of b (spec.md §3: "When a set A is declared 'before' set B, the scheduler
// synthesizes explicit before-edges from every member of A to every member
// of B").
func (r *setRegistry) declareBefore(a, b ecs.SystemSetID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked(a).beforeSets[b] = struct{}{}
	r.ensureLocked(b).afterSets[a] = struct{}{}
}

// declareAfter(a, b) is declareBefore(b, a): a runs after b.
func (r *setRegistry) declareAfter(a, b ecs.SystemSetID) {
	r.declareBefore(b, a)
}

// setEdge is one before_sets-derived constraint, resolved to a pair of
// sorted set ids for deterministic edge construction order.
type setEdge struct {
	before, after ecs.SystemSetID
}

// edges returns every (A, B) pair where A.beforeSets contains B, sorted for
// determinism across runs.
func (r *setRegistry) edges() []setEdge {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []setEdge
	for a, info := range r.sets {
		for b := range info.beforeSets {
			out = append(out, setEdge{before: a, after: b})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].before != out[j].before {
			return out[i].before < out[j].before
		}
		return out[i].after < out[j].after
	})
	return out
}

// membersOf returns the sorted member ids of set.
func (r *setRegistry) membersOf(set ecs.SystemSetID) []ecs.SystemID {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.sets[set]
	if !ok {
		return nil
	}
	out := make([]ecs.SystemID, 0, len(info.members))
	for id := range info.members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// reset clears every set, used by Scheduler.Clear.
func (r *setRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets = make(map[ecs.SystemSetID]*systemSetInfo)
}
