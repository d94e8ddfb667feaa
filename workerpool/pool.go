package workerpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// Pool dispatches TaskGraph nodes onto goroutines leased from an ants pool.
// The channel-dispatch/Close-once shape is kept from the teacher's
// worker_pool.go; what changes is that Submit takes a whole graph instead of
// one closure, and readiness is tracked by in-degree countdown rather than a
// single job queue.
type Pool struct {
	ants   *ants.Pool
	slots  chan int // logical worker ids, 0..size-1
	once   sync.Once
	closed atomic.Bool
}

// Option configures a Pool at construction.
type Option func(*poolConfig)

type poolConfig struct {
	size int
}

// WithSize overrides the default runtime.NumCPU() pool size.
func WithSize(n int) Option {
	return func(c *poolConfig) { c.size = n }
}

// New builds a Pool backed by an ants.Pool sized to runtime.NumCPU() unless
// overridden with WithSize.
func New(opts ...Option) (*Pool, error) {
	cfg := poolConfig{size: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.size < 1 {
		cfg.size = 1
	}
	ap, err := ants.NewPool(cfg.size, ants.WithPreAlloc(false))
	if err != nil {
		return nil, fmt.Errorf("workerpool: create ants pool: %w", err)
	}
	slots := make(chan int, cfg.size)
	for i := 0; i < cfg.size; i++ {
		slots <- i
	}
	return &Pool{ants: ap, slots: slots}, nil
}

// Close releases the backing ants pool. Submit after Close returns an error
// rather than panicking, mirroring the teacher's safeSendJob recover guard.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.closed.Store(true)
		p.ants.Release()
	})
}

// Future reports the outcome of one Submit call.
type Future struct {
	done chan struct{}
	err  error
}

// Wait blocks until every node in the submitted graph has settled, and
// returns the first node error encountered. Nodes whose dependency failed
// are never dispatched at all.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

var errGraphStalled = fmt.Errorf("workerpool: graph has no ready nodes (cycle suspected)")

// graphRun holds the mutable dispatch state for one Submit call.
type graphRun struct {
	mu       sync.Mutex
	g        *TaskGraph
	deps     [][]NodeID
	indeg    []int
	settled  int
	total    int
	firstErr error
	cancel   context.CancelFunc
	fut      *Future
}

// Submit schedules every node of g for execution, respecting happens-before
// edges, and returns a Future that resolves once the whole graph has
// settled. On the first node error, remaining not-yet-dispatched nodes are
// skipped and the context passed to in-flight nodes is cancelled.
func (p *Pool) Submit(ctx context.Context, g *TaskGraph) *Future {
	fut := &Future{done: make(chan struct{})}
	if p.closed.Load() {
		fut.err = fmt.Errorf("workerpool: submit on closed pool")
		close(fut.done)
		return fut
	}
	if g.Len() == 0 {
		close(fut.done)
		return fut
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &graphRun{
		g:      g,
		deps:   g.dependents(),
		indeg:  g.indegrees(),
		total:  g.Len(),
		cancel: cancel,
		fut:    fut,
	}

	var ready []NodeID
	for i := 0; i < run.total; i++ {
		if run.indeg[i] == 0 {
			ready = append(ready, NodeID(i))
		}
	}
	if len(ready) == 0 {
		fut.err = errGraphStalled
		cancel()
		close(fut.done)
		return fut
	}

	for _, id := range ready {
		p.dispatch(runCtx, run, id)
	}
	return fut
}

// dispatch submits one node to the ants pool. On submission failure (pool
// saturated past its queue, or shutting down) the node is recorded as
// failed without ever running.
func (p *Pool) dispatch(ctx context.Context, run *graphRun, id NodeID) {
	err := p.ants.Submit(func() {
		nodeErr := p.execNode(ctx, run.g, id)
		p.settle(ctx, run, id, nodeErr)
	})
	if err != nil {
		p.settle(ctx, run, id, fmt.Errorf("workerpool: submit node %d: %w", id, err))
	}
}

// execNode runs one node body on a leased worker slot, recovering a panic
// into a formatted error so a misbehaving node cannot take the pool down.
func (p *Pool) execNode(ctx context.Context, g *TaskGraph, id NodeID) (err error) {
	slot := <-p.slots
	defer func() { p.slots <- slot }()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workerpool: node %d panicked: %v", id, r)
		}
	}()
	return g.fns[id](withWorkerID(ctx, slot))
}

// settle records one node's outcome, advances dependents whose in-degree
// has reached zero, and resolves the Future once every node has settled or
// been skipped. A node downstream of a failure is never dispatched: it is
// walked into and counted as skipped instead, so the Future still resolves
// exactly once every node has been accounted for.
func (p *Pool) settle(ctx context.Context, run *graphRun, id NodeID, nodeErr error) {
	p.resolve(ctx, run, id, nodeErr)
}

// resolve marks id as accounted for (ran with nodeErr, or skipped when
// nodeErr is errSkipped) and recurses into dependents whose in-degree has
// just reached zero.
func (p *Pool) resolve(ctx context.Context, run *graphRun, id NodeID, nodeErr error) {
	run.mu.Lock()
	run.settled++
	if nodeErr != nil && nodeErr != errSkipped && run.firstErr == nil {
		run.firstErr = nodeErr
	}
	failed := run.firstErr != nil

	var newlyReady []NodeID
	for _, dep := range run.deps[id] {
		run.indeg[dep]--
		if run.indeg[dep] == 0 {
			newlyReady = append(newlyReady, dep)
		}
	}
	done := run.settled == run.total
	run.mu.Unlock()

	if failed {
		run.cancel()
	}
	for _, dep := range newlyReady {
		if failed {
			p.resolve(ctx, run, dep, errSkipped)
		} else {
			p.dispatch(ctx, run, dep)
		}
	}
	if done {
		run.fut.err = run.firstErr
		close(run.fut.done)
	}
}

// errSkipped marks a node that never ran because an ancestor failed.
var errSkipped = fmt.Errorf("workerpool: skipped, ancestor failed")

// CoRun executes fn on the calling goroutine, bypassing the ants pool
// entirely; fn's context carries worker id -1.
func CoRun(ctx context.Context, fn NodeFunc) error {
	return fn(withWorkerID(ctx, -1))
}
