// Package workerpool adapts the teacher's channel-based dispatcher into a
// DAG-aware worker pool: Submit takes a *TaskGraph of nodes and
// happens-before edges rather than a single closure, tracks readiness via
// in-degree countdown (grounded on
// other_examples/884120b9_samgonzalez27-script-weaver__internal-dag-executor.go's
// ready-set/state-machine approach), and executes ready nodes on goroutines
// leased from a github.com/panjf2000/ants/v2 pool.
package workerpool

import "context"

// NodeID identifies a node within a single TaskGraph.
type NodeID int

// NodeFunc is the unit of work for one graph node.
type NodeFunc func(ctx context.Context) error

// TaskGraph is a DAG of NodeFuncs connected by happens-before edges. The
// schedule executor builds a fresh one for every parallel-stage run.
type TaskGraph struct {
	fns  []NodeFunc
	deps [][]NodeID // deps[i] = nodes that must complete before node i runs
}

// NewTaskGraph constructs an empty graph.
func NewTaskGraph() *TaskGraph {
	return &TaskGraph{}
}

// AddNode appends a node and returns its id.
func (g *TaskGraph) AddNode(fn NodeFunc) NodeID {
	id := NodeID(len(g.fns))
	g.fns = append(g.fns, fn)
	g.deps = append(g.deps, nil)
	return id
}

// AddEdge records that before must complete before after starts.
func (g *TaskGraph) AddEdge(before, after NodeID) {
	g.deps[after] = append(g.deps[after], before)
}

// Len reports the number of nodes in the graph.
func (g *TaskGraph) Len() int { return len(g.fns) }

func (g *TaskGraph) indegrees() []int {
	in := make([]int, len(g.fns))
	for i := range g.deps {
		in[i] = len(g.deps[i])
	}
	return in
}

// dependents returns, per node, the list of nodes that depend on it.
func (g *TaskGraph) dependents() [][]NodeID {
	out := make([][]NodeID, len(g.fns))
	for node, deps := range g.deps {
		for _, d := range deps {
			out[d] = append(out[d], NodeID(node))
		}
	}
	return out
}
