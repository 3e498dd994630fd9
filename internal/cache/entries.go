package cache

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fjsui0423-max/pachi-money/internal/metrics"
	"github.com/fjsui0423-max/pachi-money/internal/models"
	"github.com/fjsui0423-max/pachi-money/pkg/logging"
)

// Fetcher loads the full entry snapshot of a household.
type Fetcher func(ctx context.Context, householdID string) ([]models.Entry, error)

// EntryCache is a read-through cache of household snapshots. Mutations
// call Invalidate instead of patching the cached slice. Each household
// carries a generation counter bumped by Invalidate; a fetch that started
// under an older generation is returned to its caller but never stored.
type EntryCache struct {
	lru     *LRUCache[[]models.Entry]
	fetch   Fetcher
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu          sync.Mutex
	generations map[string]uint64

	flights singleflight.Group
}

// NewEntryCache creates a cache over fetch. m may be nil.
func NewEntryCache(fetch Fetcher, size int, ttl time.Duration, m *metrics.Metrics) *EntryCache {
	return &EntryCache{
		lru:         NewLRUCache[[]models.Entry](size, ttl),
		fetch:       fetch,
		metrics:     m,
		logger:      logging.Component("cache"),
		generations: make(map[string]uint64),
	}
}

// Generation returns the current generation of a household.
func (c *EntryCache) Generation(householdID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[householdID]
}

// Get returns the household's snapshot, fetching it on a miss.
// Concurrent misses of the same generation share one fetch, which runs
// detached from any single caller's cancellation. The returned slice
// belongs to the caller.
func (c *EntryCache) Get(ctx context.Context, householdID string) ([]models.Entry, error) {
	if entries, ok := c.lru.Get(householdID); ok {
		c.metrics.CacheLookup("hit")
		return slices.Clone(entries), nil
	}
	c.metrics.CacheLookup("miss")

	gen := c.Generation(householdID)
	key := householdID + "@" + strconv.FormatUint(gen, 10)
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := c.flights.Do(key, func() (any, error) {
		entries, err := c.fetch(fetchCtx, householdID)
		if err != nil {
			return nil, err
		}
		if !c.storeIfCurrent(householdID, gen, entries) {
			c.metrics.CacheLookup("stale")
			c.logger.Debug("discarded stale snapshot", "group_id", householdID, "generation", gen)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.Entry)), nil
}

func (c *EntryCache) storeIfCurrent(householdID string, gen uint64, entries []models.Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[householdID] != gen {
		return false
	}
	c.lru.Set(householdID, entries)
	return true
}

// Invalidate drops the household's snapshot and outdates in-flight fetches.
func (c *EntryCache) Invalidate(householdID string) {
	c.mu.Lock()
	c.generations[householdID]++
	c.lru.Delete(householdID)
	c.mu.Unlock()
}

// Size returns the number of cached households.
func (c *EntryCache) Size() int {
	return c.lru.Size()
}

// RunJanitor removes expired snapshots every interval until ctx is done.
func (c *EntryCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := c.lru.CleanExpired(); n > 0 {
				c.logger.Debug("expired snapshots removed", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
