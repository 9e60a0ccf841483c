package caixa

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"lotofacil/internal/metrics"
	"lotofacil/internal/models"
)

const (
	defaultCacheTTL       = time.Hour
	defaultLatestCacheTTL = 5 * time.Minute
	defaultCacheSize      = 1024
)

// Cache keeps fetched payloads for a bounded time so repeated lookups of
// the same drawing within one session hit the network once. The latest
// drawing changes when a new one is published, so it is kept apart under
// its own, shorter TTL.
type Cache struct {
	source  Source
	entries *expirable.LRU[int, models.RawResult]
	latest  *expirable.LRU[int, models.RawResult]
}

// NewCache wraps source with a TTL cache holding up to size drawings.
// latestTTL applies to Latest lookups and never exceeds ttl.
func NewCache(source Source, ttl, latestTTL time.Duration, size int) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if latestTTL <= 0 {
		latestTTL = defaultLatestCacheTTL
	}
	latestTTL = min(latestTTL, ttl)
	if size <= 0 {
		size = defaultCacheSize
	}
	return &Cache{
		source:  source,
		entries: expirable.NewLRU[int, models.RawResult](size, nil, ttl),
		latest:  expirable.NewLRU[int, models.RawResult](1, nil, latestTTL),
	}
}

// Fetch serves drawingID from the cache or the wrapped source. Failures are
// not cached.
func (c *Cache) Fetch(ctx context.Context, drawingID int) (models.RawResult, error) {
	entries := c.entries
	if drawingID == Latest {
		entries = c.latest
	}

	if raw, ok := entries.Get(drawingID); ok {
		metrics.RecordCacheLookup(true)
		return raw, nil
	}
	metrics.RecordCacheLookup(false)

	raw, err := c.source.Fetch(ctx, drawingID)
	if err != nil {
		return nil, err
	}
	entries.Add(drawingID, raw)
	return raw, nil
}

// Len reports how many drawings are currently cached.
func (c *Cache) Len() int {
	return c.entries.Len() + c.latest.Len()
}
