package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/cadence/internal/actionitem"
)

// sweep applies fn to items on at most workers goroutines and returns the
// results of the items that ran, in item order. Once ctx is done no further
// item starts; items already running finish on a context detached from ctx's
// cancellation, so a transaction in flight always completes.
func sweep[R any](ctx context.Context, workers int, items []actionitem.ActionItem, fn func(context.Context, actionitem.ActionItem) R) (results []R, interrupted bool) {
	if workers < 1 {
		workers = 1
	}
	all := make([]R, len(items))
	ran := make([]bool, len(items))
	detached := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		i, item := i, item
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			ran[i] = true
			all[i] = fn(detached, item)
			return nil
		})
	}
	_ = g.Wait()

	results = make([]R, 0, len(items))
	for i := range items {
		if ran[i] {
			results = append(results, all[i])
		} else {
			interrupted = true
		}
	}
	return results, interrupted
}
