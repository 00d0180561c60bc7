package gdlgraph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// result holds the outcome of one unit of work.
type result[T any] struct {
	val T
	err error
}

// settle runs fn for every item with at most limit in flight and keeps only
// the successful values, in input order. Failed units are reported through
// the returned error slice and never abort their siblings. The only fatal
// outcome is cancellation of ctx.
func settle[I, T any](ctx context.Context, limit int, items []I, fn func(context.Context, I) (T, error)) ([]T, []error, error) {
	results := make([]result[T], len(items))

	var g errgroup.Group
	g.SetLimit(max(limit, 1))
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			results[i].val, results[i].err = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("settle: %w", err)
	}

	vals := make([]T, 0, len(items))
	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		vals = append(vals, r.val)
	}
	return vals, errs, nil
}
