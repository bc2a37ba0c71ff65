package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inventoryservice "github.com/avelar-dev/bookstore-orders/internal/inventory-service"
)

func TestCheckAvailability(t *testing.T) {
	store := NewStore(map[int64]int{101: 5, 102: 0})

	availability, err := store.CheckAvailability(context.Background(), map[int64]int{
		101: 5, // exactly enough
		102: 1, // out of stock
		999: 1, // unknown book
	})
	require.NoError(t, err)

	assert.Equal(t, map[int64]bool{101: true, 102: false, 999: false}, availability)
}

func TestReduce_AllOrNothing(t *testing.T) {
	store := NewStore(map[int64]int{101: 5, 102: 1})

	err := store.Reduce(context.Background(), "ref-1", map[int64]int{101: 2, 102: 3})

	var shortErr *inventoryservice.ShortStockError
	require.ErrorAs(t, err, &shortErr)
	assert.Equal(t, []int64{102}, shortErr.BookIDs)

	// The available book was not decremented either.
	assert.Equal(t, 5, store.Stock(101))
	assert.Equal(t, 1, store.Stock(102))
}

func TestReduce_UnknownBookBlocksEverything(t *testing.T) {
	store := NewStore(map[int64]int{101: 5})

	err := store.Reduce(context.Background(), "ref-1", map[int64]int{101: 1, 999: 1})

	var shortErr *inventoryservice.ShortStockError
	require.ErrorAs(t, err, &shortErr)
	assert.Equal(t, []int64{999}, shortErr.BookIDs)
	assert.Equal(t, 5, store.Stock(101))
}

func TestReduce_Success(t *testing.T) {
	store := NewStore(map[int64]int{101: 5, 102: 2})

	require.NoError(t, store.Reduce(context.Background(), "ref-1", map[int64]int{101: 2, 102: 2}))

	assert.Equal(t, 3, store.Stock(101))
	assert.Equal(t, 0, store.Stock(102))
}

func TestReduce_ConcurrentScarceItem(t *testing.T) {
	initialStock := 20
	totalRequests := 50

	store := NewStore(map[int64]int{101: initialStock})

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Reduce(context.Background(), "ref", map[int64]int{101: 1})
			if err == nil {
				successCount.Add(1)
				return
			}
			var shortErr *inventoryservice.ShortStockError
			if !errors.As(err, &shortErr) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(initialStock), successCount.Load())
	assert.Equal(t, 0, store.Stock(101))
}
