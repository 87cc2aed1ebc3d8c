package btree

import (
	"sort"

	"github.com/quadcore/quadcore/internal/pagecache"
)

// Tree is the B+Tree quad index over one gspo.tdb file. Structural
// mutation (Insert, MarkDeleted) is serialized by the caller's
// exclusive write lock (spec §5: "no node-level latches are required
// because writers are single"); Tree itself performs no locking beyond
// what pagecache.Cache already does for concurrent Get/Release.
type Tree struct {
	backend *fileBackend
	cache   *pagecache.Cache
	sb      *superblock
}

// Open opens (creating if absent) the index file at path, with a page
// cache of the given capacity in pages.
func Open(path string, cacheCapacity int) (*Tree, error) {
	backend, err := openFileBackend(path)
	if err != nil {
		return nil, err
	}
	fi, err := backend.f.Stat()
	if err != nil {
		return nil, &StorageError{Op: "stat index file", Err: err}
	}

	t := &Tree{backend: backend}
	t.cache = pagecache.New(backend, cacheCapacity)

	if fi.Size() == 0 {
		root := newLeafPage()
		if err := backend.WritePage(1, root); err != nil {
			return nil, err
		}
		t.sb = &superblock{
			Magic:          superblockMagic,
			Version:        formatVersion,
			RootPageID:     1,
			NextUnusedPage: 2,
		}
		if err := backend.WritePage(0, t.sb.marshal()); err != nil {
			return nil, err
		}
		if err := backend.Sync(); err != nil {
			return nil, err
		}
		return t, nil
	}

	sbBuf, err := backend.ReadPage(0)
	if err != nil {
		return nil, err
	}
	sb, err := unmarshalSuperblock(sbBuf)
	if err != nil {
		return nil, err
	}
	t.sb = sb
	return t, nil
}

// Close releases the tree's backing file handle.
func (t *Tree) Close() error {
	return t.backend.Close()
}

// RootPageID returns the current root page id, for recovery bookkeeping.
func (t *Tree) RootPageID() uint64 { return t.sb.RootPageID }

// LastCheckpointOffset returns the WAL offset recorded at the last
// checkpoint (spec §4.4).
func (t *Tree) LastCheckpointOffset() uint64 { return t.sb.LastCheckpointOffset }

// Cache exposes the tree's page cache for checkpoint flushing.
func (t *Tree) Cache() *pagecache.Cache { return t.cache }

func (t *Tree) allocPage() uint64 {
	id := t.sb.NextUnusedPage
	t.sb.NextUnusedPage++
	return id
}

// Checkpoint flushes dirty pages, fsyncs the index file, persists the
// superblock with walOffset as the new last-checkpoint marker, and
// fsyncs again (spec §4.4).
func (t *Tree) Checkpoint(walOffset uint64) error {
	if err := t.cache.FlushAll(); err != nil {
		return err
	}
	t.sb.LastCheckpointOffset = walOffset
	if err := t.backend.WritePage(0, t.sb.marshal()); err != nil {
		return err
	}
	return t.backend.Sync()
}

// decodeLeafEntries reads every occupied entry slot (live and
// tombstoned alike) out of a leaf page buffer.
func decodeLeafEntries(buf []byte) []leafEntry {
	n := entryCount(buf)
	out := make([]leafEntry, n)
	for i := 0; i < n; i++ {
		out[i] = readLeafEntry(buf, i)
	}
	return out
}

func encodeLeafEntries(buf []byte, entries []leafEntry, rightSib uint64) {
	for i, e := range entries {
		writeLeafEntry(buf, i, e)
	}
	setEntryCount(buf, len(entries))
	setRightSibling(buf, rightSib)
}

type decodedInner struct {
	entries  []innerEntry
	rightmost uint64
}

func decodeInner(buf []byte) decodedInner {
	n := entryCount(buf)
	d := decodedInner{entries: make([]innerEntry, n), rightmost: readInnerRightmost(buf)}
	for i := 0; i < n; i++ {
		d.entries[i] = readInnerEntry(buf, i)
	}
	return d
}

func encodeInner(buf []byte, d decodedInner) {
	for i, e := range d.entries {
		writeInnerEntry(buf, i, e)
	}
	setEntryCount(buf, len(d.entries))
	writeInnerRightmost(buf, d.rightmost)
}

// childFor returns the child page id that should hold key, per the
// inner node's routing rule described in doc.go.
func (d decodedInner) childFor(key Key) uint64 {
	for _, e := range d.entries {
		if key.Less(e.Separator) {
			return e.Child
		}
	}
	return d.rightmost
}

// Insert adds key with the given tombstone flag. A structurally equal
// key already present is a no-op (spec §4.3 tie-break policy).
func (t *Tree) Insert(key Key, tombstone bool) error {
	flag := flagLive
	if tombstone {
		flag = flagTombstone
	}
	sepKey, newPageID, err := t.insertRec(t.sb.RootPageID, key, flag)
	if err != nil {
		return err
	}
	if newPageID != 0 {
		newRoot := newInnerPage()
		d := decodedInner{
			entries:   []innerEntry{{Separator: sepKey, Child: t.sb.RootPageID}},
			rightmost: newPageID,
		}
		encodeInner(newRoot, d)
		rootID := t.allocPage()
		if err := t.backend.WritePage(rootID, newRoot); err != nil {
			return err
		}
		t.sb.RootPageID = rootID
	}
	return nil
}

// insertRec inserts key into the subtree rooted at pageID. If the page
// had to split, it returns the promoted separator and the new
// sibling's page id; otherwise newPageID is 0.
func (t *Tree) insertRec(pageID uint64, key Key, flag byte) (sepKey Key, newPageID uint64, err error) {
	ref, err := t.cache.Get(pageID)
	if err != nil {
		return Key{}, 0, err
	}
	buf := ref.Data()

	if pageKind(buf) == pageKindLeaf {
		entries := decodeLeafEntries(buf)
		pos := sort.Search(len(entries), func(i int) bool { return !entries[i].Key.Less(key) })
		if pos < len(entries) && entries[pos].Key == key {
			t.cache.Release(ref)
			return Key{}, 0, nil // duplicate: idempotent no-op
		}
		entries = append(entries, leafEntry{})
		copy(entries[pos+1:], entries[pos:])
		entries[pos] = leafEntry{Key: key, Flag: flag}

		if len(entries) <= leafMaxEntries() {
			encodeLeafEntries(buf, entries, rightSibling(buf))
			t.cache.MarkDirty(ref)
			t.cache.Release(ref)
			return Key{}, 0, nil
		}

		mid := len(entries) / 2
		left, right := entries[:mid], entries[mid:]
		oldRightSib := rightSibling(buf)
		newLeafID := t.allocPage()

		encodeLeafEntries(buf, left, newLeafID)
		t.cache.MarkDirty(ref)
		t.cache.Release(ref)

		newBuf := newLeafPage()
		encodeLeafEntries(newBuf, right, oldRightSib)
		if err := t.backend.WritePage(newLeafID, newBuf); err != nil {
			return Key{}, 0, &OutOfSpaceError{Err: err}
		}

		return right[0].Key, newLeafID, nil
	}

	d := decodeInner(buf)
	childSlot := -1
	childID := d.rightmost
	for i, e := range d.entries {
		if key.Less(e.Separator) {
			childSlot = i
			childID = e.Child
			break
		}
	}
	t.cache.Release(ref) // re-fetched below if we need to mutate

	childSep, childNewID, err := t.insertRec(childID, key, flag)
	if err != nil {
		return Key{}, 0, err
	}
	if childNewID == 0 {
		return Key{}, 0, nil
	}

	ref, err = t.cache.Get(pageID)
	if err != nil {
		return Key{}, 0, err
	}
	buf = ref.Data()
	d = decodeInner(buf)

	if childSlot == -1 {
		d.entries = append(d.entries, innerEntry{Separator: childSep, Child: childID})
		d.rightmost = childNewID
	} else {
		d.entries = append(d.entries, innerEntry{})
		copy(d.entries[childSlot+1:], d.entries[childSlot:])
		d.entries[childSlot] = innerEntry{Separator: childSep, Child: childID}
		d.entries[childSlot+1].Child = childNewID
	}

	if len(d.entries) <= innerMaxEntries() {
		encodeInner(buf, d)
		t.cache.MarkDirty(ref)
		t.cache.Release(ref)
		return Key{}, 0, nil
	}

	mid := len(d.entries) / 2
	promoted := d.entries[mid].Separator
	leftD := decodedInner{entries: d.entries[:mid], rightmost: d.entries[mid].Child}
	rightD := decodedInner{entries: append([]innerEntry{}, d.entries[mid+1:]...), rightmost: d.rightmost}

	encodeInner(buf, leftD)
	t.cache.MarkDirty(ref)
	t.cache.Release(ref)

	newInnerID := t.allocPage()
	newBuf := newInnerPage()
	encodeInner(newBuf, rightD)
	if err := t.backend.WritePage(newInnerID, newBuf); err != nil {
		return Key{}, 0, &OutOfSpaceError{Err: err}
	}

	return promoted, newInnerID, nil
}

// MarkDeleted sets the tombstone flag on an existing physical entry
// equal to key, if present. This is the §4.3 index-level "Delete",
// distinct from the facade's logical tombstone (a newly inserted key
// with a later txTime, written via Insert).
func (t *Tree) MarkDeleted(key Key) error {
	pageID := t.sb.RootPageID
	for {
		ref, err := t.cache.Get(pageID)
		if err != nil {
			return err
		}
		buf := ref.Data()
		if pageKind(buf) == pageKindLeaf {
			entries := decodeLeafEntries(buf)
			pos := sort.Search(len(entries), func(i int) bool { return !entries[i].Key.Less(key) })
			if pos < len(entries) && entries[pos].Key == key {
				entries[pos].Flag = flagTombstone
				encodeLeafEntries(buf, entries, rightSibling(buf))
				t.cache.MarkDirty(ref)
			}
			t.cache.Release(ref)
			return nil
		}
		d := decodeInner(buf)
		next := d.childFor(key)
		t.cache.Release(ref)
		pageID = next
	}
}
