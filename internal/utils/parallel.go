package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelTask is one unit of work for RunParallelTasks.
type ParallelTask func(ctx context.Context) error

// RunParallelTasks runs every task with at most limit in flight and returns
// the error of each task by index. A failing task does not cancel the others,
// so callers always learn the outcome of every task. limit <= 0 means no limit.
func RunParallelTasks(ctx context.Context, limit int, tasks []ParallelTask) []error {
	errs := make([]error, len(tasks))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			errs[i] = task(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return errs
}

// FirstError returns the first non-nil error in errs.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
