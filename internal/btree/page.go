package btree

import (
	"encoding/binary"

	"github.com/quadcore/quadcore/internal/pagecache"
)

// PageSize mirrors pagecache.PageSize; the B+Tree's unit of I/O is one
// page cache page.
const PageSize = pagecache.PageSize

// Page kinds, stored in the first header byte.
const (
	pageKindInner byte = 1
	pageKindLeaf  byte = 2
)

// headerSize is the fixed 16-byte page header (spec §4.3):
// kind(1) reserved(1) entryCount(2) rightSibling(8) freeSpaceOffset(4).
const headerSize = 16

const (
	offKind         = 0
	offReserved     = 1
	offEntryCount   = 2
	offRightSibling = 4
	offFreeSpace    = 12
)

// leafEntrySize: key(56) + flag(1) + payload(8).
const leafEntrySize = KeySize + 1 + 8

// innerEntrySize: separator key(56) + child page id(8).
const innerEntrySize = KeySize + 8

const (
	flagLive      byte = 0
	flagTombstone byte = 1
)

// FlagLive and FlagTombstone are the exported forms of the leaf
// entry's 1-byte flag, for callers that decode Cursor.Entry results
// outside this package.
const (
	FlagLive      = flagLive
	FlagTombstone = flagTombstone
)

func pageKind(buf []byte) byte { return buf[offKind] }

func entryCount(buf []byte) int {
	return int(binary.BigEndian.Uint16(buf[offEntryCount : offEntryCount+2]))
}

func setEntryCount(buf []byte, n int) {
	binary.BigEndian.PutUint16(buf[offEntryCount:offEntryCount+2], uint16(n))
}

func rightSibling(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf[offRightSibling : offRightSibling+8])
}

func setRightSibling(buf []byte, id uint64) {
	binary.BigEndian.PutUint64(buf[offRightSibling:offRightSibling+8], id)
}

// leafEntry is the decoded view of one leaf slot.
type leafEntry struct {
	Key   Key
	Flag  byte
	Value uint64 // payload pointer, unused by the core (spec §4.3)
}

func newLeafPage() []byte {
	buf := make([]byte, PageSize)
	buf[offKind] = pageKindLeaf
	setEntryCount(buf, 0)
	setRightSibling(buf, 0)
	return buf
}

func newInnerPage() []byte {
	buf := make([]byte, PageSize)
	buf[offKind] = pageKindInner
	setEntryCount(buf, 0)
	return buf
}

func leafMaxEntries() int {
	return (PageSize - headerSize) / leafEntrySize
}

// innerMaxEntries bounds separators; one extra 8-byte slot holds the
// rightmost child id (spec §4.3: "plus a rightmost child").
func innerMaxEntries() int {
	return (PageSize - headerSize - 8) / innerEntrySize
}

func readLeafEntry(buf []byte, i int) leafEntry {
	start := headerSize + i*leafEntrySize
	var e leafEntry
	copy(e.Key[:], buf[start:start+KeySize])
	e.Flag = buf[start+KeySize]
	e.Value = binary.BigEndian.Uint64(buf[start+KeySize+1 : start+KeySize+1+8])
	return e
}

func writeLeafEntry(buf []byte, i int, e leafEntry) {
	start := headerSize + i*leafEntrySize
	copy(buf[start:start+KeySize], e.Key[:])
	buf[start+KeySize] = e.Flag
	binary.BigEndian.PutUint64(buf[start+KeySize+1:start+KeySize+1+8], e.Value)
}

// innerEntry is the decoded view of one inner-page slot: keys less
// than Separator route to Child.
type innerEntry struct {
	Separator Key
	Child     uint64
}

func readInnerEntry(buf []byte, i int) innerEntry {
	start := headerSize + i*innerEntrySize
	var e innerEntry
	copy(e.Separator[:], buf[start:start+KeySize])
	e.Child = binary.BigEndian.Uint64(buf[start+KeySize : start+KeySize+8])
	return e
}

func writeInnerEntry(buf []byte, i int, e innerEntry) {
	start := headerSize + i*innerEntrySize
	copy(buf[start:start+KeySize], e.Separator[:])
	binary.BigEndian.PutUint64(buf[start+KeySize:start+KeySize+8], e.Child)
}

// innerRightmostOffset is fixed past the maximum entries region so it
// never overlaps a live separator slot regardless of entryCount.
func innerRightmostOffset() int {
	return headerSize + innerMaxEntries()*innerEntrySize
}

func readInnerRightmost(buf []byte) uint64 {
	off := innerRightmostOffset()
	return binary.BigEndian.Uint64(buf[off : off+8])
}

func writeInnerRightmost(buf []byte, id uint64) {
	off := innerRightmostOffset()
	binary.BigEndian.PutUint64(buf[off:off+8], id)
}
