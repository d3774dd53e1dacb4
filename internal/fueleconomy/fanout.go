package fueleconomy

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// resolveLevel is one level of the resolution tree: discover a menu, resolve
// every entry concurrently, and concatenate the children's results in menu
// order. Each child writes only its own slot, so the output order follows the
// menu regardless of completion order.
//
// The first child error is returned once every child has finished; siblings
// are not cancelled and no partial result is returned. limit bounds in-flight
// children, 0 means unbounded.
func resolveLevel[T any](
	ctx context.Context,
	limit int,
	discover func(context.Context) ([]MenuEntry, error),
	child func(context.Context, MenuEntry) ([]T, error),
) ([]T, error) {
	entries, err := discover(ctx)
	if err != nil {
		return nil, err
	}

	slots := make([][]T, len(entries))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, entry := range entries {
		g.Go(func() error {
			out, err := child(ctx, entry)
			if err != nil {
				return err
			}
			slots[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return flatten(slots), nil
}

// flatten collapses exactly one level of nesting.
func flatten[T any](slots [][]T) []T {
	n := 0
	for _, s := range slots {
		n += len(s)
	}
	out := make([]T, 0, n)
	for _, s := range slots {
		out = append(out, s...)
	}
	return out
}
