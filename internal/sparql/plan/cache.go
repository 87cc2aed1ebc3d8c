package plan

import (
	"container/list"
	"sync"
)

// cacheKey is the plan cache's key (spec §4.8 "Plan caching"): the
// normalized query text plus the dataset's graph count, since the same
// query text over a dataset with a different number of named graphs
// can produce a different DefaultGraphUnionScan/CrossGraphMultiPatternScan
// shape.
type cacheKey struct {
	query      string
	graphCount int
}

type cacheEntry struct {
	key        cacheKey
	query      *Query
	statsSnap  map[string]uint64 // predicate -> cardinality, captured at plan time
}

// Cache is a bounded LRU from (normalized query text, graph count) to a
// compiled-and-optimized *Query, invalidated when the live statistics
// provider's per-predicate counts have drifted from the snapshot
// captured at plan construction by more than relativeThreshold (spec
// §4.8 default 25%).
type Cache struct {
	mu               sync.Mutex
	capacity         int
	relativeThreshold float64
	ll               *list.List
	items            map[cacheKey]*list.Element
}

// NewCache builds a Cache with the given capacity (entry count) and
// the spec-default 25% drift invalidation threshold.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity:          capacity,
		relativeThreshold: 0.25,
		ll:                list.New(),
		items:             make(map[cacheKey]*list.Element),
	}
}

// Get returns the cached plan for (queryText, graphCount) if present
// and not stats-stale, touching it as most-recently-used.
func (c *Cache) Get(queryText string, graphCount int, snapshot func(predicate string) (uint64, bool)) (*Query, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{query: normalize(queryText), graphCount: graphCount}
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.isStale(entry, snapshot) {
		c.ll.Remove(el)
		delete(c.items, key)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return entry.query, true
}

// Put inserts or replaces the cached plan for (queryText, graphCount),
// capturing statsSnap as the drift baseline, and evicts the
// least-recently-used entry if the cache is at capacity.
func (c *Cache) Put(queryText string, graphCount int, q *Query, statsSnap map[string]uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey{query: normalize(queryText), graphCount: graphCount}
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*cacheEntry).query = q
		el.Value.(*cacheEntry).statsSnap = statsSnap
		return
	}
	entry := &cacheEntry{key: key, query: q, statsSnap: statsSnap}
	el := c.ll.PushFront(entry)
	c.items[key] = el
	if c.capacity > 0 && c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

func (c *Cache) isStale(entry *cacheEntry, snapshot func(predicate string) (uint64, bool)) bool {
	for pred, old := range entry.statsSnap {
		cur, ok := snapshot(pred)
		if !ok {
			continue
		}
		if old == 0 {
			if cur != 0 {
				return true
			}
			continue
		}
		delta := float64(cur) - float64(old)
		if delta < 0 {
			delta = -delta
		}
		if delta/float64(old) > c.relativeThreshold {
			return true
		}
	}
	return false
}

// normalize collapses a query string's insignificant whitespace so
// textually-equivalent queries (differing only in formatting) share a
// cache entry.
func normalize(s string) string {
	var out []byte
	lastSpace := true
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			if !lastSpace {
				out = append(out, ' ')
				lastSpace = true
			}
			continue
		}
		out = append(out, b)
		lastSpace = false
	}
	for len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return string(out)
}
