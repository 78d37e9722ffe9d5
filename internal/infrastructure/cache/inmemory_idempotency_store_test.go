package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first delivery is new, redelivery is not", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "ORIAN:ShipOrder_NKS:1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "ORIAN:ShipOrder_NKS:1", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("expired key is accepted again", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "short", 10*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, "short")
		require.NoError(t, err)
		assert.False(t, processed)

		isNew, err := store.MarkProcessed(ctx, "short", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("forgotten key is accepted again", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "failed-store", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Forget(ctx, "failed-store"))

		isNew, err := store.MarkProcessed(ctx, "failed-store", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "short-1", 10*time.Millisecond)
	_, _ = store.MarkProcessed(ctx, "short-2", 10*time.Millisecond)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	processed, err := store.IsProcessed(ctx, "long")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentRedelivery(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	const deliveries = 100
	results := make(chan bool, deliveries)
	for i := 0; i < deliveries; i++ {
		go func() {
			isNew, err := store.MarkProcessed(ctx, "same-delivery", time.Hour)
			results <- err == nil && isNew
		}()
	}

	accepted := 0
	for i := 0; i < deliveries; i++ {
		if <-results {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
