package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Fetcher is anything that can load a page by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// NewClient creates a Redis client for the page cache.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Memoize returns the cached result for key, or calls fn and caches its result for ttl.
// Redis failures fall through to fn.
func Memoize[T any](ctx context.Context, rdb redis.Cmdable, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var result T

	// Try fetching from cache
	cachedData, err := rdb.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(cachedData, &result); jsonErr == nil {
			return result, nil
		}
	}

	result, err = fn()
	if err != nil {
		return result, err
	}

	cacheData, err := json.Marshal(result)
	if err == nil {
		rdb.Set(ctx, key, cacheData, ttl)
	}

	return result, nil
}

// PageFetcher serves recently fetched pages from Redis.
type PageFetcher struct {
	next   Fetcher
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewPageFetcher wraps next with a Redis-backed page cache.
func NewPageFetcher(next Fetcher, rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *PageFetcher {
	return &PageFetcher{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Fetch returns the cached page for url or loads it through the wrapped fetcher.
func (p *PageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	hit := true
	page, err := Memoize(ctx, p.rdb, "quote-page:"+url, p.ttl, func() ([]byte, error) {
		hit = false
		return p.next.Fetch(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Page loaded", zap.String("url", url), zap.Bool("cache_hit", hit))
	return page, nil
}
