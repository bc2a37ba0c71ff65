package catalogservice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
	gets   int
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.values[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.values[key] = value.(string)
	return nil
}

func (f *fakeCache) GenerateKey(operation, key string) string {
	return "catalog:" + operation + ":" + key
}

func TestPrices_OmitsUnknownBooks(t *testing.T) {
	svc := New(map[int64]float64{101: 399.0, 102: 249.5}, nil)

	prices := svc.Prices(context.Background(), []int64{101, 102, 999})

	assert.Equal(t, map[int64]float64{101: 399.0, 102: 249.5}, prices)
}

func TestPrices_ReadThroughCache(t *testing.T) {
	c := newFakeCache()
	svc := New(map[int64]float64{101: 399.0}, c)

	prices := svc.Prices(context.Background(), []int64{101})
	require.Equal(t, map[int64]float64{101: 399.0}, prices)
	assert.Equal(t, 1, c.sets)

	// Second lookup is served from the cache.
	prices = svc.Prices(context.Background(), []int64{101})
	require.Equal(t, map[int64]float64{101: 399.0}, prices)
	assert.Equal(t, 1, c.sets)
	assert.Equal(t, 2, c.gets)
}

func TestSetPrice_AddsNewBook(t *testing.T) {
	svc := New(map[int64]float64{101: 399.0}, nil)

	svc.SetPrice(context.Background(), 102, 120.0)

	prices := svc.Prices(context.Background(), []int64{101, 102})
	assert.Equal(t, map[int64]float64{101: 399.0, 102: 120.0}, prices)
}
