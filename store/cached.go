package store

import (
	"context"
	"time"

	"github.com/bluele/gcache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/weaveworks/pubbot/common"
)

var storeCacheCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: common.PrometheusNamespace,
	Name:      "store_cache",
	Help:      "Reports state store reads that hit or miss the local cache.",
}, []string{"result"})

func init() {
	prometheus.MustRegister(storeCacheCounter)
}

// cached keeps plain values read through it in an LRU cache. Sets are never
// cached. Only valid while this process is the store's single writer.
type cached struct {
	Store
	cache gcache.Cache
}

type cacheValue struct {
	value string
	ok    bool
}

func newCached(s Store, size int, expiration time.Duration) *cached {
	builder := gcache.New(size).LRU()
	if expiration > 0 {
		builder = builder.Expiration(expiration)
	}
	return &cached{
		Store: s,
		cache: builder.Build(),
	}
}

func (c *cached) lookup(key string) (cacheValue, bool) {
	v, err := c.cache.Get(key)
	storeCacheCounter.WithLabelValues(hitOrMiss(err)).Inc()
	if err != nil {
		return cacheValue{}, false
	}
	return v.(cacheValue), true
}

func (c *cached) Get(ctx context.Context, key string) (string, bool, error) {
	if v, hit := c.lookup(key); hit {
		return v.value, v.ok, nil
	}
	value, ok, err := c.Store.Get(ctx, key)
	if err == nil {
		c.cache.Set(key, cacheValue{value, ok})
	}
	return value, ok, err
}

func (c *cached) Set(ctx context.Context, key, value string) error {
	c.cache.Remove(key)
	if err := c.Store.Set(ctx, key, value); err != nil {
		return err
	}
	c.cache.Set(key, cacheValue{value, true})
	return nil
}

func (c *cached) Delete(ctx context.Context, key string) error {
	c.cache.Remove(key)
	return c.Store.Delete(ctx, key)
}

func (c *cached) Incr(ctx context.Context, key string) (int64, error) {
	c.cache.Remove(key)
	return c.Store.Incr(ctx, key)
}

func (c *cached) MGet(ctx context.Context, keys ...string) ([]*string, error) {
	result := make([]*string, len(keys))
	var missing []string
	var missingIdx []int
	for i, key := range keys {
		if v, hit := c.lookup(key); hit {
			if v.ok {
				value := v.value
				result[i] = &value
			}
			continue
		}
		missing = append(missing, key)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return result, nil
	}

	values, err := c.Store.MGet(ctx, missing...)
	if err != nil {
		return nil, err
	}
	for j, v := range values {
		result[missingIdx[j]] = v
		if v != nil {
			c.cache.Set(missing[j], cacheValue{*v, true})
		} else {
			c.cache.Set(missing[j], cacheValue{})
		}
	}
	return result, nil
}

func hitOrMiss(err error) string {
	if err == nil {
		return "hit"
	}
	return "miss"
}
