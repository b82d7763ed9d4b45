package suggest

import (
	"math"
	"sync"

	"github.com/bastiangx/hposerve/internal/metrics"
	"github.com/bastiangx/hposerve/pkg/ontology"
	"github.com/charmbracelet/log"
)

// HotCache keeps the results of recent searches keyed by normalized query.
// Entries never go stale because the index behind them is immutable.
type HotCache struct {
	entries     map[string][]ontology.Match
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	misses      int64
	maxEntries  int
	mu          sync.Mutex
}

// NewHotCache returns a cache holding up to maxEntries queries.
// A non-positive size gives a cache that stores nothing.
func NewHotCache(maxEntries int) *HotCache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &HotCache{
		entries:    make(map[string][]ontology.Match, maxEntries),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the cached results for query.
func (hc *HotCache) Get(query string) ([]ontology.Match, bool) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	matches, ok := hc.entries[query]
	if !ok {
		hc.misses++
		metrics.CacheMisses.WithLabelValues("search").Inc()
		return nil, false
	}
	hc.hits++
	metrics.CacheHits.WithLabelValues("search").Inc()
	hc.markAccessed(query)

	out := make([]ontology.Match, len(matches))
	copy(out, matches)
	return out, true
}

// Put stores a copy of matches under query, evicting the least recently used entry when full.
func (hc *HotCache) Put(query string, matches []ontology.Match) {
	if hc.maxEntries == 0 {
		return
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if _, exists := hc.entries[query]; !exists && len(hc.entries) >= hc.maxEntries {
		hc.evictLRU()
	}

	stored := make([]ontology.Match, len(matches))
	copy(stored, matches)
	hc.entries[query] = stored
	hc.markAccessed(query)
}

// Stats reports cache occupancy and hit counters.
func (hc *HotCache) Stats() map[string]int {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	return map[string]int{
		"cacheEntries":    len(hc.entries),
		"maxCacheEntries": hc.maxEntries,
		"cacheHits":       int(hc.hits),
		"cacheMisses":     int(hc.misses),
	}
}

func (hc *HotCache) markAccessed(query string) {
	hc.accessCount++
	hc.accessTime[query] = hc.accessCount
}

func (hc *HotCache) evictLRU() {
	var oldestQuery string
	var oldestTime int64 = math.MaxInt64
	found := false

	for query, accessTime := range hc.accessTime {
		if accessTime < oldestTime {
			oldestTime = accessTime
			oldestQuery = query
			found = true
		}
	}

	if found {
		delete(hc.entries, oldestQuery)
		delete(hc.accessTime, oldestQuery)
		log.Debugf("Evicted query '%s' from hot cache", oldestQuery)
	}
}
