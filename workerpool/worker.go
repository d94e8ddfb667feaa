package workerpool

import "context"

type workerIDKey struct{}

// withWorkerID stashes the logical slot id of the goroutine currently
// executing a graph node into ctx, so node bodies can call CurrentWorkerID
// without the pool exposing goroutine identity directly.
func withWorkerID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, workerIDKey{}, id)
}

// CurrentWorkerID returns the logical worker slot executing the calling
// node, and false when called from outside a pool-dispatched node.
func CurrentWorkerID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(workerIDKey{}).(int)
	return id, ok
}

// IsWorkerThread reports whether ctx was handed to a node body by a Pool
// dispatch, as opposed to CoRun's inline execution (worker id -1).
func IsWorkerThread(ctx context.Context) bool {
	id, ok := CurrentWorkerID(ctx)
	return ok && id >= 0
}
