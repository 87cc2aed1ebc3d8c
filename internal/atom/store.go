package atom

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultGraphAtom is the reserved atom id for the default-graph
// sentinel (spec §3).
const DefaultGraphAtom uint64 = 0

// NeverBoundAtom is the reserved atom id that never appears as a bound
// variable value (spec §3).
const NeverBoundAtom uint64 = 1

const defaultMaxAtomSize = 1 << 20 // 1 MiB

const (
	datFile = "atoms.dat"
	offFile = "atoms.off"
	idxFile = "atoms.idx"
)

// reservedSentinels are interned at store creation so Get(0)/Get(1)
// always resolve.
var reservedSentinels = [][]byte{
	[]byte("\x00urn:quadcore:default-graph\x00"),
	[]byte("\x00urn:quadcore:never-bound\x00"),
}

// Options configures an atom Store.
type Options struct {
	// Dir is the store directory holding atoms.dat/.off/.idx.
	Dir string
	// MaxAtomSize bounds a single interned term's byte length. Zero
	// selects defaultMaxAtomSize.
	MaxAtomSize int
}

// Store maps term byte strings to stable atom ids, persistently.
//
// Open is idempotent: calling it on an existing directory replays
// recovery (validating/rebuilding the index and truncating any torn
// tail) before returning a ready Store, the same contract the teacher's
// store.Open documents ("safe to call multiple times").
type Store struct {
	mu  sync.Mutex // serializes interning, distinct from any caller-side lock (spec §5)
	dir string
	max int

	dat *os.File
	off *os.File

	// data mirrors the full contents of atoms.dat. Treated as the
	// "memory-mapped" view spec §4.1 calls for: growable, append-only,
	// and the only storage read by Get. See DESIGN.md for why this is
	// a buffered mirror rather than a real mmap(2) call.
	data []byte

	// offsets[i] is the byte offset into data of atom id i's record.
	offsets []uint64

	idx *hashIndex

	poisoned error
}

// Open creates or opens an atom store rooted at opts.Dir.
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("atom: Dir is required")
	}
	max := opts.MaxAtomSize
	if max <= 0 {
		max = defaultMaxAtomSize
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir", Err: err}
	}

	s := &Store{dir: opts.Dir, max: max}

	datPath := filepath.Join(opts.Dir, datFile)
	offPath := filepath.Join(opts.Dir, offFile)

	dat, err := os.OpenFile(datPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, &StorageError{Op: "open atoms.dat", Err: err}
	}
	s.dat = dat

	off, err := os.OpenFile(offPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		dat.Close()
		return nil, &StorageError{Op: "open atoms.off", Err: err}
	}
	s.off = off

	if err := s.recover(); err != nil {
		dat.Close()
		off.Close()
		return nil, err
	}

	if len(s.offsets) == 0 {
		for _, sentinel := range reservedSentinels {
			if _, err := s.internLocked(sentinel); err != nil {
				dat.Close()
				off.Close()
				return nil, err
			}
		}
	}

	return s, nil
}

// Close releases the store's file handles. It does not discard state.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	if err := s.dat.Close(); err != nil {
		firstErr = err
	}
	if err := s.off.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Intern returns the stable atom id for bytes, assigning a new one on
// first sight. Safe for concurrent callers; interning is serialized by
// an internal mutex distinct from any store-wide reader/writer lock.
func (s *Store) Intern(bytes []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.internLocked(bytes)
}

func (s *Store) internLocked(b []byte) (uint64, error) {
	if s.poisoned != nil {
		return 0, &PoisonedError{}
	}
	if len(b) > s.max {
		return 0, &OversizedError{Size: len(b), Max: s.max}
	}

	h := fnv1a(b)
	for _, slot := range s.idx.findSlots(h) {
		id := s.idx.ids[slot] - 1
		if s.bytesEqual(id, b) {
			return id, nil
		}
	}

	id := uint64(len(s.offsets))
	offset := uint64(len(s.data))

	rec := make([]byte, 4+len(b))
	binary.BigEndian.PutUint32(rec, uint32(len(b)))
	copy(rec[4:], b)

	if _, err := s.dat.WriteAt(rec, int64(offset)); err != nil {
		s.poisoned = err
		return 0, &StorageError{Op: "write atoms.dat", Err: err}
	}
	s.data = append(s.data, rec...)

	offBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(offBuf, offset)
	if _, err := s.off.WriteAt(offBuf, int64(id)*8); err != nil {
		s.poisoned = err
		return 0, &StorageError{Op: "write atoms.off", Err: err}
	}
	s.offsets = append(s.offsets, offset)

	s.idx.insert(h, id)
	return id, nil
}

// bytesEqual resolves id's backing bytes and compares to b, used only
// to verify a hash-table hit (collision check, spec §4.1).
func (s *Store) bytesEqual(id uint64, b []byte) bool {
	got, ok := s.rawGet(id)
	return ok && string(got) == string(b)
}

// Lookup returns the atom id already assigned to bytes, without
// interning it. The second return is false if bytes has never been
// interned, letting query callers short-circuit on an unknown term
// instead of polluting the store with query-only atoms.
func (s *Store) Lookup(b []byte) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned != nil {
		return 0, false, &PoisonedError{}
	}
	h := fnv1a(b)
	for _, slot := range s.idx.findSlots(h) {
		id := s.idx.ids[slot] - 1
		if s.bytesEqual(id, b) {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// Get returns the bytes interned under id. The returned slice aliases
// the store's internal buffer and is valid until the next Intern call
// that grows the buffer, or until Close.
func (s *Store) Get(id uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned != nil {
		return nil, &PoisonedError{}
	}
	b, ok := s.rawGet(id)
	if !ok {
		return nil, &InvariantError{Msg: fmt.Sprintf("atom id %d out of range", id)}
	}
	return b, nil
}

func (s *Store) rawGet(id uint64) ([]byte, bool) {
	if id >= uint64(len(s.offsets)) {
		return nil, false
	}
	off := s.offsets[id]
	if off+4 > uint64(len(s.data)) {
		return nil, false
	}
	n := binary.BigEndian.Uint32(s.data[off : off+4])
	start := off + 4
	end := start + uint64(n)
	if end > uint64(len(s.data)) {
		return nil, false
	}
	return s.data[start:end], true
}

// Count returns the number of interned atoms, including the two
// reserved sentinels.
func (s *Store) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.offsets))
}

// Stats reports size and poisoned status for quadstore.GetStatistics.
type Stats struct {
	Count      uint64
	Bytes      uint64
	IsPoisoned bool
}

func (s *Store) StatsSnapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Count:      uint64(len(s.offsets)),
		Bytes:      uint64(len(s.data)),
		IsPoisoned: s.poisoned != nil,
	}
}
