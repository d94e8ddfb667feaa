package schedule

import (
	"context"
	"fmt"

	ecs "github.com/forgecraft/ecsruntime"
	"github.com/forgecraft/ecsruntime/workerpool"
)

// executionGraph is a frozen, per-schedule execution plan: the ordered node
// list plus the happens-before edges among them (spec.md §3, "Execution
// graph": "an ordered vector of system indices and a task DAG"). The task
// DAG itself is rebuilt fresh each tick from these edges, since a
// workerpool.TaskGraph's node bodies are one-shot closures.
type executionGraph struct {
	nodes []*systemNode
	edges [][2]int
}

// buildExecutionGraph implements spec.md §4.11 step 1-4: node creation,
// explicit ordering, set-derived ordering, data-dependency ordering, in that
// construction order, with a cycle-breaking pass over the pre-data-
// dependency edges (see breakCycles) before the inherently acyclic
// data-dependency edges are layered on top.
func buildExecutionGraph(nodes []*systemNode, sets *setRegistry, logger ecs.Logger) *executionGraph {
	n := len(nodes)
	index := make(map[ecs.SystemID]int, n)
	for i, node := range nodes {
		index[node.id] = i
	}

	var orderingEdges [][2]int

	// Step 2: explicit before/after ordering declared on each system's
	// descriptor. Targets absent from this schedule are logged and ignored
	// (spec.md §4.11: "Missing targets produce a diagnostic warning but are
	// not errors").
	for i, node := range nodes {
		for _, b := range node.desc.Before {
			if j, ok := index[b]; ok {
				orderingEdges = append(orderingEdges, [2]int{i, j})
			} else {
				logger.Info("schedule: explicit ordering target missing from schedule", "system", node.name(), "before", b.String())
			}
		}
		for _, a := range node.desc.After {
			if j, ok := index[a]; ok {
				orderingEdges = append(orderingEdges, [2]int{j, i})
			} else {
				logger.Info("schedule: explicit ordering target missing from schedule", "system", node.name(), "after", a.String())
			}
		}
	}

	// Step 3: system-set-derived ordering. For every set A with B in
	// A.before_sets, such that both have members in this schedule, add an
	// edge per (m_A, m_B) pair.
	for _, e := range sets.edges() {
		beforeMembers := membersPresent(sets.membersOf(e.before), index)
		afterMembers := membersPresent(sets.membersOf(e.after), index)
		if len(beforeMembers) == 0 || len(afterMembers) == 0 {
			continue
		}
		for _, bi := range beforeMembers {
			for _, ai := range afterMembers {
				orderingEdges = append(orderingEdges, [2]int{bi, ai})
				logger.Info("schedule: set-derived ordering edge",
					"before_set", string(e.before), "after_set", string(e.after),
					"before_system", nodes[bi].name(), "after_system", nodes[ai].name())
			}
		}
	}

	orderingEdges = breakCycles(n, orderingEdges, func(from, to int) {
		logger.Error("schedule: dropping ordering edge to break a cycle",
			"from", nodes[from].name(), "to", nodes[to].name())
	})

	// Step 4: data-dependency ordering. i < j gives a stable tiebreak: the
	// earlier-registered system runs first when the access policy admits
	// either order. These edges cannot themselves cycle (always i -> j with
	// i < j), but combined with an opposing explicit/derived edge they can,
	// so the final set is passed through the cycle breaker once more.
	allEdges := append([][2]int(nil), orderingEdges...)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if nodes[i].policy.ConflictsWith(nodes[j].policy) {
				allEdges = append(allEdges, [2]int{i, j})
			}
		}
	}
	allEdges = breakCycles(n, allEdges, func(from, to int) {
		logger.Error("schedule: dropping data-dependency edge to break a cycle",
			"from", nodes[from].name(), "to", nodes[to].name())
	})

	return &executionGraph{nodes: nodes, edges: allEdges}
}

func membersPresent(members []ecs.SystemID, index map[ecs.SystemID]int) []int {
	var out []int
	for _, m := range members {
		if i, ok := index[m]; ok {
			out = append(out, i)
		}
	}
	return out
}

// breakCycles makes the graph over n nodes acyclic by repeatedly finding a
// cycle and removing one of its edges (a greedy pass, not a minimum edge
// set), preferring (per DESIGN.md's resolution of spec.md
// §9's open question) to drop the edge in a detected cycle whose source has
// the highest node index - i.e. the most recently registered contributor to
// the cycle. onDrop is called once per removed edge for diagnostics.
func breakCycles(n int, edges [][2]int, onDrop func(from, to int)) [][2]int {
	dedup := make(map[[2]int]bool, len(edges))
	cur := make([][2]int, 0, len(edges))
	for _, e := range edges {
		if e[0] == e[1] || dedup[e] {
			continue
		}
		dedup[e] = true
		cur = append(cur, e)
	}

	for {
		adj := make([][]int, n)
		for _, e := range cur {
			adj[e[0]] = append(adj[e[0]], e[1])
		}
		cycle, found := findCycle(n, adj)
		if !found {
			return cur
		}
		from, to := pickEdgeToDrop(cycle)
		onDrop(from, to)
		cur = removeEdge(cur, from, to)
	}
}

// findCycle returns the node sequence of a cycle in adj, if one exists, via
// a standard DFS with a gray recursion-stack marker.
func findCycle(n int, adj [][]int) ([]int, bool) {
	const white, gray, black = 0, 1, 2
	color := make([]int, n)
	var stack []int
	var result []int
	var found bool

	var dfs func(u int)
	dfs = func(u int) {
		if found {
			return
		}
		color[u] = gray
		stack = append(stack, u)
		for _, v := range adj[u] {
			if found {
				return
			}
			switch color[v] {
			case white:
				dfs(v)
			case gray:
				start := 0
				for i, s := range stack {
					if s == v {
						start = i
						break
					}
				}
				result = append([]int(nil), stack[start:]...)
				found = true
			}
		}
		if found {
			return
		}
		stack = stack[:len(stack)-1]
		color[u] = black
	}

	for i := 0; i < n; i++ {
		if color[i] == white {
			dfs(i)
			if found {
				return result, true
			}
		}
	}
	return nil, false
}

// pickEdgeToDrop selects, among the edges of the cycle, the one whose
// source node index is largest.
func pickEdgeToDrop(cycle []int) (from, to int) {
	bestSrc := -1
	for i, u := range cycle {
		if u > bestSrc {
			bestSrc = u
			from = u
			to = cycle[(i+1)%len(cycle)]
		}
	}
	return from, to
}

func removeEdge(edges [][2]int, from, to int) [][2]int {
	out := edges[:0]
	for _, e := range edges {
		if e[0] == from && e[1] == to {
			continue
		}
		out = append(out, e)
	}
	return out
}

// execute runs every node of g once, either sequentially in node order (main
// stage, or when pool is nil) or as a task DAG on the worker pool (parallel
// stages). run executes node i; the run built by runSchedule also performs
// the main stage's per-system event merge (spec.md §4.11).
func (g *executionGraph) execute(ctx context.Context, pool *workerpool.Pool, main bool, run func(i int) error) error {
	n := len(g.nodes)
	if n == 0 {
		return nil
	}
	if main || pool == nil {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := run(i); err != nil {
				return fmt.Errorf("schedule: system %s failed: %w", g.nodes[i].name(), err)
			}
		}
		return nil
	}

	tg := workerpool.NewTaskGraph()
	ids := make([]workerpool.NodeID, n)
	for i := 0; i < n; i++ {
		idx := i
		ids[i] = tg.AddNode(func(context.Context) error { return run(idx) })
	}
	for _, e := range g.edges {
		tg.AddEdge(ids[e[0]], ids[e[1]])
	}

	fut := pool.Submit(ctx, tg)
	return fut.Wait()
}
