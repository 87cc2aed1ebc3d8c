package quadstore

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/quadcore/quadcore/internal/atom"
	"github.com/quadcore/quadcore/internal/btree"
	"github.com/quadcore/quadcore/internal/pagecache"
	"github.com/quadcore/quadcore/internal/term"
	"github.com/quadcore/quadcore/internal/wal"
)

// DefaultGraph is the sentinel Graph value meaning "the default graph"
// (atom id 0, spec §3). Pass it to Add/AddCurrent/DeleteCurrent's
// graph argument to target the default graph explicitly; leave a
// Pattern's Graph nil to mean "any graph" instead.
var DefaultGraph = term.IRI("urn:quadcore:default-graph")

const (
	indexFileName = "gspo.tdb"
	walFileName   = "gspo.wal"
)

// Store is the façade spec §4.5 describes: one reader-writer lock
// guarding the atom store, the B+Tree quad index and the WAL.
//
// Locking discipline: AcquireRead/ReleaseRead bracket construction and
// disposal of an Iterator; iterators never lock internally, so a
// caller that forgets to release leaks the lock. The lock is a plain
// sync.RWMutex and does not detect recursive acquisition (see
// AcquireRead).
type Store struct {
	mu   sync.RWMutex
	dir  string
	opts Options

	atoms *atom.Store
	tree  *btree.Tree
	wal   *wal.WAL

	statsMu         sync.Mutex
	predicateCounts map[uint64]uint64
	quadCount       uint64

	lastCheckpoint time.Time
	lastTxID       uint64

	poisoned error
}

// Open creates or opens a store rooted at opts.Dir, replaying any
// uncommitted WAL tail left by a prior crash (spec §4.4 "Recovery on
// open") before returning a ready Store.
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, &InvariantError{Msg: "Options.Dir is required"}
	}
	opts = opts.withDefaults()
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, &StorageError{Op: "mkdir store dir", Err: err}
	}

	atoms, err := atom.Open(atom.Options{Dir: opts.Dir, MaxAtomSize: opts.MaxAtomSize})
	if err != nil {
		return nil, err
	}

	tree, err := btree.Open(filepath.Join(opts.Dir, indexFileName), opts.PageCacheCapacity)
	if err != nil {
		atoms.Close()
		return nil, err
	}

	w, err := wal.Open(filepath.Join(opts.Dir, walFileName))
	if err != nil {
		tree.Close()
		atoms.Close()
		return nil, err
	}

	s := &Store{
		dir:             opts.Dir,
		opts:            opts,
		atoms:           atoms,
		tree:            tree,
		wal:             w,
		predicateCounts: make(map[uint64]uint64),
		lastCheckpoint:  time.Now(),
	}

	maxTx, err := w.Replay(int64(tree.LastCheckpointOffset()), func(r wal.Record) error {
		return s.applyRecord(r)
	})
	if err != nil {
		w.Close()
		tree.Close()
		atoms.Close()
		return nil, err
	}
	w.SetNextTxID(maxTx + 1)
	s.lastTxID = maxTx

	return s, nil
}

// Close releases every underlying file handle. It does not checkpoint;
// callers that want a clean-shutdown checkpoint should call Checkpoint
// first.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	if err := s.wal.Close(); err != nil {
		firstErr = err
	}
	if err := s.tree.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.atoms.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// AcquireRead and ReleaseRead bracket a read-only operation (spec
// §4.5 "Locking discipline"). Callers must call AcquireRead before
// constructing an Iterator via Query* and ReleaseRead only after the
// Iterator has been closed. The lock does not track its holders, so
// recursive acquisition is not detected: a second AcquireRead on the
// same goroutine succeeds unless a writer is already waiting, in which
// case it deadlocks.
func (s *Store) AcquireRead() { s.mu.RLock() }
func (s *Store) ReleaseRead() { s.mu.RUnlock() }

func (s *Store) nowMicros() int64 { return time.Now().UnixMicro() }

// AddCurrent inserts a quad valid from now, open-ended.
func (s *Store) AddCurrent(g, subj, pred, obj term.Value) error {
	return s.Add(g, subj, pred, obj, s.nowMicros(), btree.MaxValidTo)
}

// Add inserts a historical quad with an explicit validity interval.
func (s *Store) Add(g, subj, pred, obj term.Value, validFrom, validTo int64) error {
	b, err := s.BeginBatch()
	if err != nil {
		return err
	}
	if err := b.AddInsert(g, subj, pred, obj, validFrom, validTo); err != nil {
		b.Rollback()
		return err
	}
	return b.Commit()
}

// DeleteCurrent emits a tombstone for (g,s,p,o) timestamped now. A
// quad that was never interned cannot have ever existed, so this is a
// silent no-op rather than an error in that case.
func (s *Store) DeleteCurrent(g, subj, pred, obj term.Value) error {
	b, err := s.BeginBatch()
	if err != nil {
		return err
	}
	ok, err := b.AddTombstone(g, subj, pred, obj)
	if err != nil {
		b.Rollback()
		return err
	}
	if !ok {
		return b.Rollback()
	}
	return b.Commit()
}

func (s *Store) internGraphAtom(v term.Value) (uint64, error) {
	if term.SameTerm(v, DefaultGraph) {
		return atom.DefaultGraphAtom, nil
	}
	return s.atoms.Intern(v.Encode())
}

func (s *Store) lookupGraphAtom(v term.Value) (uint64, bool, error) {
	if term.SameTerm(v, DefaultGraph) {
		return atom.DefaultGraphAtom, true, nil
	}
	return s.atoms.Lookup(v.Encode())
}

func (s *Store) decodeGraphValue(id uint64) (term.Value, error) {
	if id == atom.DefaultGraphAtom {
		return DefaultGraph, nil
	}
	b, err := s.atoms.Get(id)
	if err != nil {
		return term.Value{}, err
	}
	return term.ParseTerm(b)
}

func (s *Store) decodeValue(id uint64) (term.Value, error) {
	b, err := s.atoms.Get(id)
	if err != nil {
		return term.Value{}, err
	}
	return term.ParseTerm(b)
}

// applyRecord inserts one WAL record's quad into the index and bumps
// the predicate cardinality statistic. Used both by live commits and
// by recovery replay.
func (s *Store) applyRecord(r wal.Record) error {
	key := btree.EncodeKey(r.Graph, r.Subject, r.Predicate, r.Object, r.ValidFrom, r.ValidTo, int64(r.TxID))
	tombstone := r.Kind == wal.KindTombstone
	if err := s.tree.Insert(key, tombstone); err != nil {
		s.poison(err)
		return err
	}
	if r.TxID > s.lastTxID {
		s.lastTxID = r.TxID
	}
	s.statsMu.Lock()
	if !tombstone {
		s.predicateCounts[r.Predicate]++
		s.quadCount++
	}
	s.statsMu.Unlock()
	return nil
}

func (s *Store) poison(err error) {
	if s.poisoned == nil {
		s.poisoned = err
	}
}

// maybeCheckpointLocked triggers a checkpoint when the WAL has grown past
// the configured size threshold or enough time has elapsed since the
// last one (spec §4.4 "Checkpoint"). Must be called with s.mu held for
// writing.
func (s *Store) maybeCheckpointLocked() error {
	if s.wal.Size() < s.opts.CheckpointBytes && time.Since(s.lastCheckpoint) < s.opts.CheckpointInterval {
		return nil
	}
	return s.checkpointLocked()
}

// checkpointLocked flushes dirty pages, fsyncs the index, appends a
// checkpoint marker, and truncates the WAL up to that marker. Because
// the store has a single writer and checkpointLocked only ever runs
// under the exclusive write lock, there is never a concurrent writer's
// data left in the WAL past the marker, so the truncated WAL holds only
// the marker and the superblock's recorded checkpoint offset is always
// 0. The marker carries the last txId, so replay on the next Open seeds
// the transaction counter past it.
func (s *Store) checkpointLocked() error {
	if err := s.tree.Checkpoint(0); err != nil {
		s.poison(err)
		return err
	}
	markerOff := s.wal.Size()
	if err := s.wal.AppendCheckpointMarker(s.lastTxID); err != nil {
		s.poison(err)
		return err
	}
	if err := s.wal.TruncateTo(markerOff); err != nil {
		s.poison(err)
		return err
	}
	s.lastCheckpoint = time.Now()
	return nil
}

// Checkpoint forces an out-of-band checkpoint, useful before Close for
// a guaranteed-fast subsequent recovery.
func (s *Store) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned != nil {
		return &PoisonedError{}
	}
	return s.checkpointLocked()
}

// Stats reports the snapshot spec §4.5's get_statistics returns.
type Stats struct {
	QuadCount            uint64
	AtomCount            uint64
	ApproxBytes          uint64
	WALOffset            int64
	PredicateCardinality map[uint64]uint64
	PageCache            pagecache.Stats
}

// GetStatistics reports quad/atom counts, approximate size, and the
// per-predicate cardinality map the planner's join-order heuristic
// consults (spec §4.8).
func (s *Store) GetStatistics() Stats {
	s.statsMu.Lock()
	counts := make(map[uint64]uint64, len(s.predicateCounts))
	for k, v := range s.predicateCounts {
		counts[k] = v
	}
	quadCount := s.quadCount
	s.statsMu.Unlock()

	atomStats := s.atoms.StatsSnapshot()
	return Stats{
		QuadCount:            quadCount,
		AtomCount:            atomStats.Count,
		ApproxBytes:          atomStats.Bytes,
		WALOffset:            s.wal.Size(),
		PredicateCardinality: counts,
		PageCache:            s.tree.Cache().StatsSnapshot(),
	}
}
