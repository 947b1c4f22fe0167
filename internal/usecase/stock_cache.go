package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
)

// stockListCache caches the catalog listing under a generation token.
// Every committed catalog change stores a fresh token, so a listing read
// before the change is written under a token nobody looks up again.
type stockListCache struct {
	cache   Cache
	ttl     time.Duration
	idGen   IDGenerator
	metrics *metrics.Metrics
}

func newStockListCache(cache Cache, ttl time.Duration, idGen IDGenerator, m *metrics.Metrics) *stockListCache {
	if ttl <= 0 {
		ttl = DefaultStockCacheTTL
	}
	return &stockListCache{cache: cache, ttl: ttl, idGen: idGen, metrics: m}
}

// get returns the cached listing, or the generation to store a fresh one
// under. An empty generation means the result must not be cached.
func (c *stockListCache) get(ctx context.Context) ([]*domain.Stock, string, bool) {
	if c.cache == nil {
		return nil, "", false
	}

	generation, err := c.generation(ctx)
	if err != nil {
		c.count("miss")
		return nil, "", false
	}

	data, err := c.cache.Get(ctx, stockListCacheKey+":"+generation)
	if err != nil {
		c.count("miss")
		return nil, generation, false
	}

	var stocks []*domain.Stock
	if err := json.Unmarshal(data, &stocks); err != nil {
		c.count("miss")
		return nil, generation, false
	}

	c.count("hit")
	return stocks, generation, true
}

// generation must be read before the store so a concurrent change replaces it.
func (c *stockListCache) generation(ctx context.Context) (string, error) {
	data, err := c.cache.Get(ctx, stockListGenerationKey)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return "", err
	}

	generation := c.idGen.Generate()
	if err := c.cache.Set(ctx, stockListGenerationKey, []byte(generation), 0); err != nil {
		return "", err
	}
	return generation, nil
}

func (c *stockListCache) put(ctx context.Context, generation string, stocks []*domain.Stock) {
	if c.cache == nil || generation == "" {
		return
	}
	if data, err := json.Marshal(stocks); err == nil {
		_ = c.cache.Set(ctx, stockListCacheKey+":"+generation, data, c.ttl)
	}
}

// invalidate runs after commit; listings cached under the old generation expire on their own.
func (c *stockListCache) invalidate(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, stockListGenerationKey, []byte(c.idGen.Generate()), 0); err != nil {
		_ = c.cache.Delete(ctx, stockListGenerationKey)
	}
}

func (c *stockListCache) count(result string) {
	if c.metrics != nil {
		c.metrics.StockCache.WithLabelValues(result).Inc()
	}
}
