package search

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs cfg_num_threads-1 simulator loops concurrently against
// a shared root, per spec.md §4.3. The driver thread runs the same
// simulate closure itself, outside the pool, and folds its playouts into
// the same counter passed to Start.
type WorkerPool struct {
	playouts *atomic.Int64
	group    *errgroup.Group
}

// NewWorkerPool builds a pool that increments playouts (owned by the
// caller so the driver thread's own loop can share it).
func NewWorkerPool(playouts *atomic.Int64) *WorkerPool {
	return &WorkerPool{playouts: playouts}
}

// Start launches n workers. Each loops: bail if ctx is done or
// limitReached(), otherwise call simulate once and, on a Valid result,
// bump playouts. A non-nil error from simulate (an Evaluator failure)
// stops that worker and is surfaced from Wait.
func (p *WorkerPool) Start(ctx context.Context, n int, limitReached func() bool, simulate func(ctx context.Context) (bool, error)) {
	g, gctx := errgroup.WithContext(ctx)
	p.group = g
	for i := 0; i < n; i++ {
		g.Go(func() error {
			for {
				if gctx.Err() != nil || limitReached() {
					return nil
				}
				valid, err := simulate(gctx)
				if err != nil {
					return err
				}
				if valid {
					p.playouts.Add(1)
				}
			}
		})
	}
}

// Wait blocks until every worker has returned (the ThreadGroup.wait_all
// equivalent) and reports the first worker error, if any.
func (p *WorkerPool) Wait() error {
	if p.group == nil {
		return nil
	}
	return p.group.Wait()
}
