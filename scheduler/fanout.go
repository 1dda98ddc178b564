// ABOUTME: This file provides the bounded-concurrency fan-out used for the
// ABOUTME: fetcher join and the per-item classify-and-store stage.
package scheduler

import (
	"context"
	"fmt"
	"sync"
)

// taskResult pairs one input's output with its error, at the input's
// original position.
type taskResult[Out any] struct {
	value Out
	err   error
}

// forEachBounded runs fn over all inputs with at most concurrency workers
// and returns the results in input order. A panicking fn is captured as
// that input's error so one bad item cannot take the cycle down.
func forEachBounded[In, Out any](ctx context.Context, concurrency int, inputs []In, fn func(ctx context.Context, input In) (Out, error)) []taskResult[Out] {
	if len(inputs) == 0 {
		return nil
	}

	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > len(inputs) {
		concurrency = len(inputs)
	}

	results := make([]taskResult[Out], len(inputs))
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(idx int, in In) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					results[idx] = taskResult[Out]{err: fmt.Errorf("panic: %v", rec)}
				}
			}()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = taskResult[Out]{err: ctx.Err()}
				return
			}

			if ctx.Err() != nil {
				results[idx] = taskResult[Out]{err: ctx.Err()}
				return
			}

			out, err := fn(ctx, in)
			results[idx] = taskResult[Out]{value: out, err: err}
		}(i, input)
	}

	wg.Wait()
	return results
}
