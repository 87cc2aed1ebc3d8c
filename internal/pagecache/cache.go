// Package pagecache implements a bounded, reference-counted page cache
// with clock eviction over fixed-size pages of an index file (spec §4.2).
//
// Capacity is advisory under pin pressure: a page is never evicted
// while any cursor holds a pinned reference to it (spec invariant 5),
// so a long scan that pins many pages may push the cache temporarily
// over its configured capacity rather than violate that invariant.
package pagecache

import (
	"sync"
)

// PageSize is the fixed page size used throughout the index file,
// chosen to match typical OS page granularity (spec §9 open question).
const PageSize = 4096

// Backend loads and persists whole pages for a single index file. The
// B+Tree (internal/btree) is the only intended caller.
type Backend interface {
	ReadPage(id uint64) ([]byte, error)
	WritePage(id uint64, data []byte) error
	Sync() error
}

type frame struct {
	pageID     uint64
	data       []byte
	pinCount   int
	dirty      bool
	referenced bool
	valid      bool
}

// Cache is a clock-algorithm page cache pinned by reference count.
type Cache struct {
	mu       sync.Mutex
	backend  Backend
	capacity int
	frames   []*frame
	byPage   map[uint64]int // pageID -> index into frames
	hand     int

	hits, misses, evictions uint64
}

// New creates a page cache of the given capacity (in pages) backed by b.
func New(b Backend, capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		backend:  b,
		capacity: capacity,
		frames:   make([]*frame, 0, capacity),
		byPage:   make(map[uint64]int, capacity),
	}
}

// Ref is a pinned reference to a resident page. Callers must call
// Release exactly once per successful Get.
type Ref struct {
	cache *Cache
	idx   int
	page  uint64
}

// Data returns the page's bytes. Valid only while the Ref is held.
func (r *Ref) Data() []byte {
	return r.cache.frames[r.idx].data
}

// PageID returns the page id this reference pins.
func (r *Ref) PageID() uint64 { return r.page }

// Get returns a pinned reference to pageID, loading it via the backend
// if not already resident.
func (c *Cache) Get(pageID uint64) (*Ref, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.byPage[pageID]; ok {
		f := c.frames[idx]
		f.pinCount++
		f.referenced = true
		c.hits++
		return &Ref{cache: c, idx: idx, page: pageID}, nil
	}

	c.misses++
	data, err := c.backend.ReadPage(pageID)
	if err != nil {
		return nil, err
	}

	idx, err := c.allocSlot()
	if err != nil {
		return nil, err
	}
	c.frames[idx] = &frame{
		pageID:     pageID,
		data:       data,
		pinCount:   1,
		referenced: true,
		valid:      true,
	}
	c.byPage[pageID] = idx
	return &Ref{cache: c, idx: idx, page: pageID}, nil
}

// allocSlot returns a slot index to use for a newly loaded page,
// growing the slot table under capacity or running clock eviction once
// at capacity. Must be called with c.mu held.
func (c *Cache) allocSlot() (int, error) {
	if len(c.frames) < c.capacity {
		c.frames = append(c.frames, nil)
		return len(c.frames) - 1, nil
	}
	return c.evictLocked()
}

// evictLocked runs the clock sweep: a slot with referenced=0 and
// pinCount=0 is evicted; referenced=1 is cleared and skipped. Slots
// held pinned are always skipped, so under pin pressure the sweep may
// wrap the full ring before finding a victim, or find none at all (in
// which case the slot table grows past capacity, per spec §4.2).
func (c *Cache) evictLocked() (int, error) {
	n := len(c.frames)
	for i := 0; i < 2*n; i++ {
		idx := c.hand
		c.hand = (c.hand + 1) % n
		f := c.frames[idx]
		if f == nil || !f.valid {
			return idx, nil
		}
		if f.pinCount > 0 {
			continue
		}
		if f.referenced {
			f.referenced = false
			continue
		}
		if f.dirty {
			if err := c.backend.WritePage(f.pageID, f.data); err != nil {
				return 0, err
			}
		}
		delete(c.byPage, f.pageID)
		c.evictions++
		return idx, nil
	}
	// No evictable victim: every resident page is pinned. Grow past
	// capacity rather than violate invariant 5.
	c.frames = append(c.frames, nil)
	return len(c.frames) - 1, nil
}

// Release decrements pageID's pin count. A page with pin count 0 and
// the dirty flag set is written back lazily, when the clock sweep
// evicts it or at the next checkpoint, not on Release.
func (c *Cache) Release(r *Ref) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.frames[r.idx]
	if f.pinCount > 0 {
		f.pinCount--
	}
}

// MarkDirty flags r's page as needing write-back at the next checkpoint.
func (c *Cache) MarkDirty(r *Ref) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames[r.idx].dirty = true
}

// FlushAll writes every dirty resident page and fsyncs the backend,
// used by checkpoint (spec §4.4).
func (c *Cache) FlushAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.frames {
		if f == nil || !f.valid || !f.dirty {
			continue
		}
		if err := c.backend.WritePage(f.pageID, f.data); err != nil {
			return err
		}
		f.dirty = false
	}
	return c.backend.Sync()
}

// Stats reports cache hit/miss/eviction counters for quadstore.GetStatistics.
type Stats struct {
	Hits, Misses, Evictions uint64
	Resident, Capacity      int
}

func (c *Cache) StatsSnapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	resident := 0
	for _, f := range c.frames {
		if f != nil && f.valid {
			resident++
		}
	}
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Resident:  resident,
		Capacity:  c.capacity,
	}
}
