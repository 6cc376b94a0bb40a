// Package concurrent holds small helpers for fanning work out over
// goroutines with errgroup.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every item in parallel and returns the results in input
// order. At most limit calls run at once; limit <= 0 means no limit. The
// first error cancels the context passed to the remaining calls and is
// returned.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Each runs fn for every item in parallel and returns the first error.
func Each[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) error {
	_, err := Map(ctx, items, limit, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	return err
}
