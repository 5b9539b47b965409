package matching

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// forEach runs fn for every index in [0, n) on at most workers goroutines.
// fn must write only to its own slot. Scheduling stops once ctx is done.
func forEach(ctx context.Context, workers, n int, fn func(i int)) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
