package gdlgraph

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettle_KeepsSuccessesInOrder(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	items := []int{1, 2, 3, 4, 5, 6}

	vals, errs, err := settle(context.Background(), 3, items, func(_ context.Context, n int) (int, error) {
		if n%3 == 0 {
			return 0, boom
		}
		return n * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 40, 50}, vals)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], boom)
}

func TestSettle_RespectsLimit(t *testing.T) {
	t.Parallel()
	var inFlight, peak atomic.Int32
	items := make([]int, 32)

	_, _, err := settle(context.Background(), 2, items, func(_ context.Context, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestSettle_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	vals, errs, err := settle(ctx, 1, []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		cancel()
		return n, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, vals)
	assert.Nil(t, errs)
	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestSettle_Empty(t *testing.T) {
	t.Parallel()
	vals, errs, err := settle(context.Background(), 4, nil, func(context.Context, string) (string, error) {
		t.Fatal("not called")
		return "", nil
	})
	require.NoError(t, err)
	assert.Empty(t, vals)
	assert.Empty(t, errs)
}
