package btree

import (
	"sort"

	"github.com/quadcore/quadcore/internal/pagecache"
)

// Cursor is a scan position into the leaf chain. It holds a pinned
// reference to its current leaf page; advancing past the leaf's last
// entry releases that page and pins the right sibling (spec §4.3
// "Sequential scan"). Cursor.Close must be called once the caller is
// done to release any pinned page (spec §4.5 iterator semantics).
type Cursor struct {
	tree    *Tree
	ref     *pagecache.Ref
	entries []leafEntry
	pos     int
	done    bool
}

// Seek descends from the root to the first leaf entry whose key is
// greater than or equal to prefix (spec §4.3 "Seek").
func (t *Tree) Seek(prefix Key) (*Cursor, error) {
	pageID := t.sb.RootPageID
	for {
		ref, err := t.cache.Get(pageID)
		if err != nil {
			return nil, err
		}
		buf := ref.Data()
		if pageKind(buf) == pageKindLeaf {
			entries := decodeLeafEntries(buf)
			pos := sort.Search(len(entries), func(i int) bool { return !entries[i].Key.Less(prefix) })
			c := &Cursor{tree: t, ref: ref, entries: entries, pos: pos}
			if pos >= len(entries) {
				if err := c.advanceLeaf(); err != nil {
					return nil, err
				}
			}
			return c, nil
		}
		d := decodeInner(buf)
		next := d.childFor(prefix)
		t.cache.Release(ref)
		pageID = next
	}
}

// advanceLeaf releases the current leaf and loads the right sibling,
// marking the cursor exhausted if there is none.
func (c *Cursor) advanceLeaf() error {
	rs := rightSibling(c.ref.Data())
	c.tree.cache.Release(c.ref)
	c.ref = nil
	if rs == 0 {
		c.done = true
		return nil
	}
	ref, err := c.tree.cache.Get(rs)
	if err != nil {
		return err
	}
	c.ref = ref
	c.entries = decodeLeafEntries(ref.Data())
	c.pos = 0
	if len(c.entries) == 0 {
		return c.advanceLeaf()
	}
	return nil
}

// Valid reports whether the cursor is positioned at an entry.
func (c *Cursor) Valid() bool { return !c.done }

// Entry returns the entry the cursor is positioned at. Valid must be true.
func (c *Cursor) Entry() (Key, byte) {
	e := c.entries[c.pos]
	return e.Key, e.Flag
}

// Next advances the cursor by one entry, crossing leaf boundaries via
// the right-sibling pointer as needed. Returns false once exhausted.
func (c *Cursor) Next() (bool, error) {
	if c.done {
		return false, nil
	}
	c.pos++
	if c.pos >= len(c.entries) {
		if err := c.advanceLeaf(); err != nil {
			return false, err
		}
	}
	return !c.done, nil
}

// Close releases any pinned page. Safe to call multiple times.
func (c *Cursor) Close() {
	if c.ref != nil {
		c.tree.cache.Release(c.ref)
		c.ref = nil
	}
	c.done = true
}
