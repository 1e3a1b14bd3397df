package analytics

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coocood/freecache"

	"github.com/meltforce/ironlog/internal/models"
)

const megabyte = 1024 * 1024

// Cache memoizes built chart series per user. Entries are keyed by a per-user
// generation, so Invalidate drops everything for that user at once.
type Cache struct {
	cache  *freecache.Cache
	ttl    time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	generations map[int]uint64
}

// NewCache creates a cache of sizeMB megabytes whose entries expire after ttl.
func NewCache(sizeMB int, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		cache:       freecache.NewCache(sizeMB * megabyte),
		ttl:         ttl,
		logger:      logger,
		generations: make(map[int]uint64),
	}
}

func (c *Cache) generation(userID int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[userID]
}

// Invalidate discards every cached chart of userID. Call it whenever the
// user's history changes.
func (c *Cache) Invalidate(userID int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.generations[userID]++
	c.mu.Unlock()
}

// key includes now to the minute: range windows are computed from now, so a
// series is never served for a window more than a minute away from its own.
func (c *Cache) key(userID int, cfg models.GraphConfig, now time.Time) []byte {
	return []byte(fmt.Sprintf("%d:%d:%s:%s:%s:%s",
		userID, c.generation(userID), cfg.Type, cfg.TimeRange, cfg.ExerciseID,
		now.Truncate(time.Minute).Format(time.RFC3339)))
}

// Chart returns the cached series for cfg, building and storing it on a miss.
// A nil Cache always builds.
func (c *Cache) Chart(userID int, cfg models.GraphConfig, history []models.Workout, now time.Time) models.ChartSeries {
	if c == nil {
		return Build(cfg, history, now)
	}
	key := c.key(userID, cfg, now)
	if b, err := c.cache.Get(key); err == nil {
		var out models.ChartSeries
		if err := json.Unmarshal(b, &out); err == nil {
			return out
		}
		c.logger.Warn("discarding undecodable chart cache entry", "key", string(key))
	}

	out := Build(cfg, history, now)
	b, err := json.Marshal(out)
	if err != nil {
		return out
	}
	if err := c.cache.Set(key, b, int(c.ttl.Seconds())); err != nil {
		c.logger.Debug("chart cache set failed", "key", string(key), "error", err)
	}
	return out
}

// Stats reports lifetime hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.cache.HitCount(), c.cache.MissCount()
}
