package dynamo

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is one independent unit of simulation work.
type Task func(ctx context.Context) error

// RunTasks executes tasks concurrently when parallel is set, otherwise in
// order. The first failure cancels the context seen by the remaining tasks
// and is the error returned.
func RunTasks(ctx context.Context, parallel bool, tasks ...Task) error {
	if !parallel {
		for _, task := range tasks {
			if err := task(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			return task(gctx)
		})
	}
	return g.Wait()
}
