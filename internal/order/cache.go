package order

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachedStore serves order details read-through from a cache. The order
// header, lines and prices never change after checkout, but the user name,
// product names and image URLs are joined from live tables and may be stale
// for up to the TTL. Entries only expire by TTL. Cache failures fall back to
// the underlying store.
type CachedStore struct {
	next   Store
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedStore(next Store, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedStore {
	return &CachedStore{next: next, cache: cache, ttl: ttl, logger: logger}
}

func detailKey(orderID int64) string {
	return "order:detail:" + strconv.FormatInt(orderID, 10)
}

func (s *CachedStore) Detail(ctx context.Context, orderID int64) (*Detail, error) {
	key := detailKey(orderID)

	b, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var d Detail
		if err := json.Unmarshal(b, &d); err == nil {
			return &d, nil
		}
		s.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, ErrCacheMiss):
		s.logger.Warn().Err(err).Str("key", key).Msg("order cache get failed")
	}

	d, err := s.next.Detail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(d); err == nil {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("order cache set failed")
		}
	}
	return d, nil
}

// ListByUser is not cached: the list grows with every checkout.
func (s *CachedStore) ListByUser(ctx context.Context, userID int64) ([]Summary, error) {
	return s.next.ListByUser(ctx, userID)
}
