// Package fanout runs a fixed set of upstream calls concurrently.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is one branch of a fan-out.
type Task func(ctx context.Context) error

// All runs every task concurrently and waits for all of them to finish.
// A failing task does not stop its siblings; the first error is returned.
func All(ctx context.Context, tasks ...Task) error {
	var g errgroup.Group
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return task(ctx)
		})
	}
	return g.Wait()
}

// Result is the outcome of one Settle branch.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the branch succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Settle calls fn for every input concurrently and keeps every outcome.
// A failing branch never affects the others. Results are ordered as inputs.
func Settle[I, O any](ctx context.Context, inputs []I, fn func(context.Context, I) (O, error)) []Result[O] {
	results := make([]Result[O], len(inputs))

	var g errgroup.Group
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			v, err := fn(ctx, in)
			results[i] = Result[O]{Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait() // branches never return errors

	return results
}
