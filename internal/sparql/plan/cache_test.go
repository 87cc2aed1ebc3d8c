package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixedSnapshot(vals map[string]uint64) func(string) (uint64, bool) {
	return func(pred string) (uint64, bool) {
		v, ok := vals[pred]
		return v, ok
	}
}

func TestCache_PutThenGet(t *testing.T) {
	c := NewCache(4)
	q := &Query{Root: BGP{}}
	c.Put("SELECT * WHERE { ?s ?p ?o }", 1, q, map[string]uint64{"http://ex/p": 100})

	got, ok := c.Get("SELECT * WHERE { ?s ?p ?o }", 1, fixedSnapshot(map[string]uint64{"http://ex/p": 100}))
	assert.True(t, ok)
	assert.Same(t, q, got)
}

func TestCache_MissOnDifferentGraphCount(t *testing.T) {
	c := NewCache(4)
	q := &Query{Root: BGP{}}
	c.Put("SELECT * WHERE { ?s ?p ?o }", 1, q, nil)

	_, ok := c.Get("SELECT * WHERE { ?s ?p ?o }", 2, fixedSnapshot(nil))
	assert.False(t, ok)
}

func TestCache_NormalizesWhitespaceForKey(t *testing.T) {
	c := NewCache(4)
	q := &Query{Root: BGP{}}
	c.Put("SELECT  *   WHERE\n{ ?s ?p ?o }", 1, q, nil)

	got, ok := c.Get("SELECT * WHERE { ?s ?p ?o }", 1, fixedSnapshot(nil))
	assert.True(t, ok)
	assert.Same(t, q, got)
}

func TestCache_StaleEntryEvictedOnDrift(t *testing.T) {
	c := NewCache(4)
	q := &Query{Root: BGP{}}
	c.Put("SELECT * WHERE { ?s <http://ex/p> ?o }", 1, q, map[string]uint64{"http://ex/p": 100})

	_, ok := c.Get("SELECT * WHERE { ?s <http://ex/p> ?o }", 1, fixedSnapshot(map[string]uint64{"http://ex/p": 1000}))
	assert.False(t, ok, "a >25%% cardinality drift should invalidate the cached plan")
}

func TestCache_StableEntrySurvivesSmallDrift(t *testing.T) {
	c := NewCache(4)
	q := &Query{Root: BGP{}}
	c.Put("SELECT * WHERE { ?s <http://ex/p> ?o }", 1, q, map[string]uint64{"http://ex/p": 100})

	got, ok := c.Get("SELECT * WHERE { ?s <http://ex/p> ?o }", 1, fixedSnapshot(map[string]uint64{"http://ex/p": 110}))
	assert.True(t, ok)
	assert.Same(t, q, got)
}

func TestCache_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c := NewCache(2)
	q1, q2, q3 := &Query{Root: BGP{}}, &Query{Root: BGP{}}, &Query{Root: BGP{}}
	c.Put("Q1", 1, q1, nil)
	c.Put("Q2", 1, q2, nil)
	// touch Q1 so Q2 becomes the least-recently-used entry
	c.Get("Q1", 1, fixedSnapshot(nil))
	c.Put("Q3", 1, q3, nil)

	_, ok := c.Get("Q2", 1, fixedSnapshot(nil))
	assert.False(t, ok, "Q2 should have been evicted as least-recently-used")

	got1, ok := c.Get("Q1", 1, fixedSnapshot(nil))
	assert.True(t, ok)
	assert.Same(t, q1, got1)

	got3, ok := c.Get("Q3", 1, fixedSnapshot(nil))
	assert.True(t, ok)
	assert.Same(t, q3, got3)
}
