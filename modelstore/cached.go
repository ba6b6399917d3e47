package modelstore

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ecopulse-analytics-api/forecast"
	"ecopulse-analytics-api/metrics"
)

// Cached serves repeated loads from memory. Saves through this store replace
// the entry. Saves by other processes are picked up when the owner calls
// Invalidate on their retrain event, or after ttl at the latest.
type Cached struct {
	next  forecast.ParamStore
	cache *expirable.LRU[string, *forecast.Params]
}

// NewCached wraps next in an LRU of size entries. A ttl of zero never
// expires entries.
func NewCached(next forecast.ParamStore, size int, ttl time.Duration) (*Cached, error) {
	if size < 1 {
		return nil, fmt.Errorf("model cache size must be positive, got %d", size)
	}
	return &Cached{next: next, cache: expirable.NewLRU[string, *forecast.Params](size, nil, ttl)}, nil
}

func (c *Cached) Load(ctx context.Context, target string) (*forecast.Params, error) {
	key := forecast.ModelKey(target)
	if p, ok := c.cache.Get(key); ok {
		metrics.ModelCacheLookups.WithLabelValues("hit").Inc()
		return p, nil
	}
	metrics.ModelCacheLookups.WithLabelValues("miss").Inc()
	p, err := c.next.Load(ctx, target)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, p)
	return p, nil
}

func (c *Cached) Save(ctx context.Context, p *forecast.Params) error {
	if err := c.next.Save(ctx, p); err != nil {
		return err
	}
	c.cache.Add(forecast.ModelKey(p.Target), p)
	return nil
}

// Invalidate drops the cached parameters for target so the next Load reads
// the backend.
func (c *Cached) Invalidate(target string) {
	c.cache.Remove(forecast.ModelKey(target))
}
