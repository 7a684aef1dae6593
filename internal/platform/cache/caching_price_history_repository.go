// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stocksim_backend/internal/feature/market/domain/entity"
	"stocksim_backend/internal/feature/market/usecase"
)

// CachingPriceHistoryRepository decorates a PriceHistoryRepository with Redis caching.
// Reads of the latest N points are cached per stock. Writers call Invalidate
// once their transaction has committed.
type CachingPriceHistoryRepository struct {
	inner     usecase.PriceHistoryRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var (
	_ usecase.PriceHistoryRepository  = (*CachingPriceHistoryRepository)(nil)
	_ usecase.HistoryCacheInvalidator = (*CachingPriceHistoryRepository)(nil)
)

// NewCachingPriceHistoryRepository decorates a PriceHistoryRepository with Redis caching.
// If ttl is 0, it defaults to 1 minute. If namespace is empty, it uses "history".
func NewCachingPriceHistoryRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PriceHistoryRepository, namespace string) *CachingPriceHistoryRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if namespace == "" {
		namespace = "history"
	}
	return &CachingPriceHistoryRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Append appends points. Cached windows are left to Invalidate, which callers run after commit.
func (c *CachingPriceHistoryRepository) Append(ctx context.Context, points ...entity.PriceHistoryPoint) error {
	return c.inner.Append(ctx, points...)
}

// ReplaceAll replaces a stock's history. Cached windows are left to Invalidate.
func (c *CachingPriceHistoryRepository) ReplaceAll(ctx context.Context, stockID string, points []entity.PriceHistoryPoint) error {
	return c.inner.ReplaceAll(ctx, stockID, points)
}

// Invalidate drops every cached window of the given stocks.
func (c *CachingPriceHistoryRepository) Invalidate(ctx context.Context, stockIDs ...string) {
	if c.rdb == nil {
		return
	}
	seen := map[string]struct{}{}
	for _, id := range stockIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		c.invalidate(ctx, id)
	}
}

// Latest retrieves the latest points, checking cache first then falling back to the database.
func (c *CachingPriceHistoryRepository) Latest(ctx context.Context, stockID string, limit int) ([]entity.PriceHistoryPoint, error) {
	if c.rdb == nil {
		return c.inner.Latest(ctx, stockID, limit)
	}

	key := c.cacheKey(stockID, limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.PriceHistoryPoint
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.Latest(ctx, stockID, limit)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// invalidate drops every cached window of a stock. Failures are ignored; entries expire with the TTL.
func (c *CachingPriceHistoryRepository) invalidate(ctx context.Context, stockID string) {
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(stockID)+"*")
}

func (c *CachingPriceHistoryRepository) cacheKey(stockID string, limit int) string {
	return fmt.Sprintf("%s:%s:%d", c.namespace, safe(stockID), limit)
}

func (c *CachingPriceHistoryRepository) cacheKeyPrefix(stockID string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(stockID))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceHistoryRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
