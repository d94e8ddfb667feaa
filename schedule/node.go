package schedule

import (
	"sync/atomic"

	ecs "github.com/forgecraft/ecsruntime"
	"github.com/forgecraft/ecsruntime/ecs/access"
)

// systemNode is one system's registration within one schedule: spec.md §3's
// "System node" (type-id, display name, access policy, execution-count
// counter, optional explicit ordering). The same System value registered
// into two schedules produces two independent systemNodes, each with its
// own counter, matching spec.md §4.10 ("each registration is an independent
// node").
type systemNode struct {
	id       ecs.SystemID
	sys      ecs.System
	desc     ecs.SystemDescriptor
	policy   access.Policy
	execCount atomic.Uint64
}

func newSystemNode(sys ecs.System) *systemNode {
	desc := sys.Descriptor()
	return &systemNode{
		id:     ecs.SystemIDForValue(sys),
		sys:    sys,
		desc:   desc,
		policy: buildPolicy(desc),
	}
}

func (n *systemNode) name() string {
	if n.desc.Name != "" {
		return n.desc.Name
	}
	return n.id.String()
}

// buildPolicy translates a SystemDescriptor's Queries/Resources into an
// access.Policy, dropping resources tagged thread-safe per spec.md §4.9.
func buildPolicy(desc ecs.SystemDescriptor) access.Policy {
	b := access.NewBuilder(desc.Name)
	for _, q := range desc.Queries {
		b.AddQuery(q.Reads, q.Writes)
	}

	threadSafe := make(map[ecs.ResourceID]bool, len(desc.Resources))
	var reads, writes []ecs.ResourceID
	for _, r := range desc.Resources {
		if r.ThreadSafe {
			threadSafe[r.ID] = true
		}
		if r.Mode == ecs.AccessModeWrite {
			writes = append(writes, r.ID)
		} else {
			reads = append(reads, r.ID)
		}
	}
	isThreadSafe := func(id ecs.ResourceID) bool { return threadSafe[id] }
	b.ReadResources(reads, isThreadSafe)
	b.WriteResources(writes, isThreadSafe)
	return b.Build()
}
