package cache

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// MemoryCache is an in-process TTL cache for hourly forecasts.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time

	hits   int
	misses int
}

// cacheEntry is a cached forecast with the time it was stored.
type cacheEntry struct {
	Forecast  weather.HourlyForecast
	Timestamp time.Time
}

var _ weather.ForecastCache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached forecast for key if it has not expired.
func (c *MemoryCache) Get(_ context.Context, key string) (weather.HourlyForecast, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if found && c.now().Sub(entry.Timestamp) < c.ttl {
		c.hits++
		return entry.Forecast, true, nil
	}
	if found {
		delete(c.entries, key)
	}
	c.misses++
	return weather.HourlyForecast{}, false, nil
}

// Set stores forecast under key.
func (c *MemoryCache) Set(_ context.Context, key string, forecast weather.HourlyForecast) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		Forecast:  forecast,
		Timestamp: c.now(),
	}
	return nil
}

// Stats returns cache hit and miss counts.
func (c *MemoryCache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
