package pagecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	pages map[uint64][]byte
	synced int
}

func newMemBackend() *memBackend { return &memBackend{pages: make(map[uint64][]byte)} }

func (b *memBackend) ReadPage(id uint64) ([]byte, error) {
	if p, ok := b.pages[id]; ok {
		cp := make([]byte, len(p))
		copy(cp, p)
		return cp, nil
	}
	return make([]byte, PageSize), nil
}

func (b *memBackend) WritePage(id uint64, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	b.pages[id] = cp
	return nil
}

func (b *memBackend) Sync() error { b.synced++; return nil }

func TestGetReleaseRoundTrip(t *testing.T) {
	backend := newMemBackend()
	c := New(backend, 4)

	ref, err := c.Get(1)
	require.NoError(t, err)
	ref.Data()[0] = 0x42
	c.MarkDirty(ref)
	c.Release(ref)

	require.NoError(t, c.FlushAll())
	assert.Equal(t, byte(0x42), backend.pages[1][0])
}

func TestEvictionSkipsPinnedPages(t *testing.T) {
	backend := newMemBackend()
	c := New(backend, 2)

	r1, err := c.Get(1)
	require.NoError(t, err)
	r2, err := c.Get(2)
	require.NoError(t, err)

	// Both pinned; a third Get must not evict either.
	r3, err := c.Get(3)
	require.NoError(t, err)

	stats := c.StatsSnapshot()
	assert.GreaterOrEqual(t, stats.Resident, 3)

	c.Release(r1)
	c.Release(r2)
	c.Release(r3)
}

func TestClockEvictsUnreferencedUnpinned(t *testing.T) {
	backend := newMemBackend()
	c := New(backend, 2)

	for i := uint64(1); i <= 2; i++ {
		r, err := c.Get(i)
		require.NoError(t, err)
		c.Release(r)
	}

	// Loading a third page must evict one of the first two since
	// neither is pinned, so the cache stays at its capacity of 2.
	r3, err := c.Get(3)
	require.NoError(t, err)
	c.Release(r3)

	stats := c.StatsSnapshot()
	assert.Equal(t, 2, stats.Resident)
}
