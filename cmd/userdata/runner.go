package main

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// runner executes tasks with bounded concurrency; the first error cancels
// the shared context.
type runner struct {
	ctx context.Context // derived ctx shared by all tasks
	eg  *errgroup.Group
	sem chan struct{} // concurrency gate
}

func newRunner(parent context.Context, maxConcurrency int) *runner {
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.NumCPU()
	}
	eg, ctx := errgroup.WithContext(parent)
	return &runner{
		ctx: ctx,
		eg:  eg,
		sem: make(chan struct{}, maxConcurrency),
	}
}

func (r *runner) Go(fn func(ctx context.Context) error) {
	r.eg.Go(func() error {
		select {
		case r.sem <- struct{}{}: // acquire
		case <-r.ctx.Done():
			return r.ctx.Err()
		}
		defer func() { <-r.sem }() // release
		return fn(r.ctx)
	})
}

func (r *runner) Wait() error { return r.eg.Wait() }
