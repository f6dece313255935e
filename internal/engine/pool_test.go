package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/cadence/internal/actionitem"
)

func makeItems(n int) []actionitem.ActionItem {
	items := make([]actionitem.ActionItem, n)
	for i := range items {
		items[i] = actionitem.ActionItem{ID: fmt.Sprintf("ai-%d", i)}
	}
	return items
}

func TestSweep_PreservesOrder(t *testing.T) {
	items := makeItems(20)

	results, interrupted := sweep(context.Background(), 4, items, func(_ context.Context, item actionitem.ActionItem) string {
		return item.ID
	})

	assert.False(t, interrupted)
	assert.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("ai-%d", i), r)
	}
}

func TestSweep_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32

	sweep(context.Background(), 3, makeItems(30), func(_ context.Context, _ actionitem.ActionItem) struct{} {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		running.Add(-1)
		return struct{}{}
	})

	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestSweep_StopsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var itemCtxErr error
	results, interrupted := sweep(ctx, 1, makeItems(5), func(itemCtx context.Context, item actionitem.ActionItem) string {
		cancel()
		itemCtxErr = itemCtx.Err()
		return item.ID
	})

	assert.True(t, interrupted)
	assert.Equal(t, []string{"ai-0"}, results)
	assert.NoError(t, itemCtxErr, "the running item is detached from cancellation")
}

func TestSweep_Empty(t *testing.T) {
	results, interrupted := sweep(context.Background(), 0, nil, func(context.Context, actionitem.ActionItem) int { return 1 })
	assert.Empty(t, results)
	assert.False(t, interrupted)
}
