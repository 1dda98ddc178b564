package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachBounded_PreservesInputOrder(t *testing.T) {
	inputs := []int{5, 3, 8, 1, 9, 2}

	results := forEachBounded(context.Background(), 3, inputs,
		func(ctx context.Context, n int) (int, error) {
			return n * 10, nil
		})

	require.Len(t, results, len(inputs))
	for i, input := range inputs {
		assert.Equal(t, input*10, results[i].value)
		assert.NoError(t, results[i].err)
	}
}

func TestForEachBounded_RespectsConcurrencyLimit(t *testing.T) {
	var current, peak atomic.Int32
	var mu sync.Mutex

	inputs := make([]int, 20)
	results := forEachBounded(context.Background(), 4, inputs,
		func(ctx context.Context, n int) (int, error) {
			now := current.Add(1)
			mu.Lock()
			if now > peak.Load() {
				peak.Store(now)
			}
			mu.Unlock()
			defer current.Add(-1)
			return 0, nil
		})

	require.Len(t, results, 20)
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestForEachBounded_ErrorsStayPerInput(t *testing.T) {
	inputs := []int{1, 2, 3}
	failOn := errors.New("bad input")

	results := forEachBounded(context.Background(), 2, inputs,
		func(ctx context.Context, n int) (int, error) {
			if n == 2 {
				return 0, failOn
			}
			return n, nil
		})

	assert.NoError(t, results[0].err)
	assert.ErrorIs(t, results[1].err, failOn)
	assert.NoError(t, results[2].err)
}

func TestForEachBounded_PanicCapturedAsError(t *testing.T) {
	inputs := []int{1, 2}

	results := forEachBounded(context.Background(), 2, inputs,
		func(ctx context.Context, n int) (int, error) {
			if n == 2 {
				panic("worker exploded")
			}
			return n, nil
		})

	assert.NoError(t, results[0].err)
	assert.ErrorContains(t, results[1].err, "worker exploded")
}

func TestForEachBounded_EmptyInput(t *testing.T) {
	results := forEachBounded(context.Background(), 4, nil,
		func(ctx context.Context, n int) (int, error) {
			return n, nil
		})

	assert.Nil(t, results)
}

func TestForEachBounded_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := forEachBounded(ctx, 1, []int{1, 2, 3},
		func(ctx context.Context, n int) (int, error) {
			return n, nil
		})

	for _, r := range results {
		assert.Error(t, r.err)
	}
}
