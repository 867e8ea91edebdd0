package oddsfeed

import (
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/squares-ev/internal/models"
)

// PairCache keeps recently fetched odds pairs keyed by event id.
// A zero TTL disables caching.
type PairCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Items   int     `json:"items"`
	HitRate float64 `json:"hit_rate"`
}

// NewPairCache creates a new pair cache
func NewPairCache(ttl time.Duration) *PairCache {
	if ttl <= 0 {
		return &PairCache{}
	}
	return &PairCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get retrieves a cached pair
func (pc *PairCache) Get(eventID string) (*models.OddsPair, bool) {
	if pc.cache == nil {
		return nil, false
	}
	if v, found := pc.cache.Get(eventID); found {
		if pair, ok := v.(*models.OddsPair); ok {
			pc.hitCount.Add(1)
			return pair, true
		}
	}
	pc.missCount.Add(1)
	return nil, false
}

// Set stores a pair
func (pc *PairCache) Set(eventID string, pair *models.OddsPair) {
	if pc.cache == nil {
		return
	}
	pc.cache.Set(eventID, pair, pc.ttl)
}

// Invalidate drops the cached pair for an event.
func (pc *PairCache) Invalidate(eventID string) {
	if pc.cache == nil {
		return
	}
	pc.cache.Delete(eventID)
}

// Stats returns cache statistics
func (pc *PairCache) Stats() CacheStats {
	hits, misses := pc.hitCount.Load(), pc.missCount.Load()
	stats := CacheStats{Hits: hits, Misses: misses}
	if pc.cache != nil {
		stats.Items = pc.cache.ItemCount()
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}
