package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/auth"
)

type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	sets   int
	ttl    time.Duration
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	b, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.ttl = ttl
	c.data[key] = value
	return nil
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	store := ownedBy(7)
	cache := newMemCache()
	cached := NewCachedStore(store, cache, time.Minute, zerolog.Nop())

	first, err := cached.Detail(ctx, 42)
	require.NoError(t, err)
	second, err := cached.Detail(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, 1, store.detailCalls)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, time.Minute, cache.ttl, "entries expire so joined names and images refresh")
	assert.Equal(t, first.UserID, second.UserID)
	assert.True(t, first.TotalPrice.Equal(second.TotalPrice))
}

func TestCachedStore_AuthorizationStillApplies(t *testing.T) {
	ctx := context.Background()
	svc := NewQueryService(NewCachedStore(ownedBy(7), newMemCache(), time.Minute, zerolog.Nop()))

	_, err := svc.GetOrder(ctx, 42, auth.Requester{UserID: 7})
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, 42, auth.Requester{UserID: 8})
	assert.Error(t, err)
}

func TestCachedStore_CacheErrorFallsBack(t *testing.T) {
	store := ownedBy(7)
	cache := newMemCache()
	cache.getErr = errors.New("connection refused")

	d, err := NewCachedStore(store, cache, time.Minute, zerolog.Nop()).Detail(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), d.ID)
	assert.Equal(t, 1, store.detailCalls)
}

func TestCachedStore_DoesNotCacheErrors(t *testing.T) {
	store := &fakeStore{}
	cache := newMemCache()

	_, err := NewCachedStore(store, cache, time.Minute, zerolog.Nop()).Detail(context.Background(), 404)
	require.Error(t, err)
	assert.Zero(t, cache.sets)
}
