package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsAllIndependentNodes(t *testing.T) {
	p, err := New(WithSize(4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	g := NewTaskGraph()
	var ran int32
	for i := 0; i < 4; i++ {
		g.AddNode(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}

	fut := p.Submit(context.Background(), g)
	if err := fut.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ran != 4 {
		t.Fatalf("expected 4 nodes run, got %d", ran)
	}
}

func TestSubmitRespectsHappensBeforeOrder(t *testing.T) {
	p, err := New(WithSize(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	g := NewTaskGraph()
	var mu sync.Mutex
	var order []int

	first := g.AddNode(func(ctx context.Context) error {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
		return nil
	})
	second := g.AddNode(func(ctx context.Context) error {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		return nil
	})
	g.AddEdge(first, second)

	if err := p.Submit(context.Background(), g).Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected [1 2], got %v", order)
	}
}

func TestSubmitSkipsDownstreamOfFailure(t *testing.T) {
	p, err := New(WithSize(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	g := NewTaskGraph()
	boom := errors.New("boom")
	failing := g.AddNode(func(ctx context.Context) error { return boom })
	var downstreamRan int32
	downstream := g.AddNode(func(ctx context.Context) error {
		atomic.AddInt32(&downstreamRan, 1)
		return nil
	})
	g.AddEdge(failing, downstream)

	err = p.Submit(context.Background(), g).Wait()
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
	if downstreamRan != 0 {
		t.Fatalf("downstream of a failed node must not run")
	}
}

func TestSubmitEmptyGraphResolvesImmediately(t *testing.T) {
	p, err := New(WithSize(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	done := make(chan struct{})
	go func() {
		_ = p.Submit(context.Background(), NewTaskGraph()).Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("empty graph did not resolve")
	}
}

func TestSubmitDetectsCycle(t *testing.T) {
	p, err := New(WithSize(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	g := NewTaskGraph()
	a := g.AddNode(func(ctx context.Context) error { return nil })
	b := g.AddNode(func(ctx context.Context) error { return nil })
	g.AddEdge(a, b)
	g.AddEdge(b, a)

	if err := p.Submit(context.Background(), g).Wait(); err == nil {
		t.Fatalf("expected cycle detection error")
	}
}

func TestCurrentWorkerIDInsidePoolNode(t *testing.T) {
	p, err := New(WithSize(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	g := NewTaskGraph()
	var sawID bool
	g.AddNode(func(ctx context.Context) error {
		_, ok := CurrentWorkerID(ctx)
		sawID = ok
		return nil
	})
	if err := p.Submit(context.Background(), g).Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !sawID {
		t.Fatalf("expected CurrentWorkerID to resolve inside a pool node")
	}
}

func TestCoRunExecutesInline(t *testing.T) {
	ran := false
	err := CoRun(context.Background(), func(ctx context.Context) error {
		ran = true
		if IsWorkerThread(ctx) {
			t.Fatalf("CoRun should not report as a pool worker thread")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("CoRun: %v", err)
	}
	if !ran {
		t.Fatalf("expected CoRun to execute fn")
	}
}

func TestNodePanicIsRecoveredAsError(t *testing.T) {
	p, err := New(WithSize(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	g := NewTaskGraph()
	g.AddNode(func(ctx context.Context) error {
		panic("node exploded")
	})
	if err := p.Submit(context.Background(), g).Wait(); err == nil {
		t.Fatalf("expected recovered panic to surface as an error")
	}
}
