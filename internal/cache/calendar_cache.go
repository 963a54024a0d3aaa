package cache

import (
	"fmt"
	"time"

	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/asucbc/cbc-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const calendarCacheName = "calendar"

// DefaultCalendarTTL matches the calendar page's revalidation window
const DefaultCalendarTTL = 5 * time.Minute

// CalendarCache keeps Google Calendar responses in memory for a short TTL.
// Concurrent misses for the same key share one upstream call. Failed loads
// are not cached.
type CalendarCache struct {
	cache *gocache.Cache
	group singleflight.Group
}

// NewCalendarCache creates a cache with the given TTL. A non-positive ttl
// uses DefaultCalendarTTL.
func NewCalendarCache(ttl time.Duration) *CalendarCache {
	if ttl <= 0 {
		ttl = DefaultCalendarTTL
	}
	return &CalendarCache{cache: gocache.New(ttl, 2*ttl)}
}

// Remember returns the cached value for key or stores the result of load
func Remember[T any](c *CalendarCache, key string, load func() (T, error)) (T, error) {
	var zero T

	if data, found := c.cache.Get(key); found {
		if value, ok := data.(T); ok {
			metrics.CacheHits.WithLabelValues(calendarCacheName).Inc()
			logger.Debug("Calendar cache hit", zap.String("key", key))
			return value, nil
		}
		logger.Error("Invalid calendar cache data type", zap.String("key", key))
		c.cache.Delete(key)
	}

	metrics.CacheMisses.WithLabelValues(calendarCacheName).Inc()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := load()
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(key, value)
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("calendar cache: unexpected type for key %s", key)
	}
	return value, nil
}

// Flush drops every cached entry
func (c *CalendarCache) Flush() {
	c.cache.Flush()
	logger.Info("Calendar cache flushed")
}

// Len returns the number of cached entries, expired ones included until cleanup
func (c *CalendarCache) Len() int {
	return c.cache.ItemCount()
}
