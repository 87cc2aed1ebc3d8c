package quadstore

import (
	"github.com/quadcore/quadcore/internal/btree"
	"github.com/quadcore/quadcore/internal/term"
	"github.com/quadcore/quadcore/internal/wal"
)

// Batch accumulates inserts/tombstones under the store's exclusive
// write lock between BeginBatch and Commit/Rollback (spec §4.4 write
// path, steps 1-4). The store's write lock is held for the Batch's
// entire lifetime; callers must call exactly one of Commit or
// Rollback, never both and never neither.
type Batch struct {
	store   *Store
	wb      *wal.Batch
	settled bool
}

// BeginBatch acquires the store's exclusive write lock and starts a
// new WAL batch (spec §4.4 step 1).
func (s *Store) BeginBatch() (*Batch, error) {
	s.mu.Lock()
	if s.poisoned != nil {
		s.mu.Unlock()
		return nil, &PoisonedError{}
	}
	return &Batch{store: s, wb: s.wal.BeginBatch()}, nil
}

// AddInsert interns g/s/p/o (creating fresh atoms as needed) and
// appends an insert record to the batch's in-memory buffer (spec §4.4
// step 2). Nothing is durable or visible until Commit.
func (b *Batch) AddInsert(g, subj, pred, obj term.Value, validFrom, validTo int64) error {
	gi, si, pi, oi, err := b.store.internQuad(g, subj, pred, obj)
	if err != nil {
		return err
	}
	b.wb.AddInsert(gi, si, pi, oi, validFrom, validTo)
	return nil
}

// AddTombstone appends a tombstone record timestamped by the batch's
// txId (its TxID doubles as the composite key's txTime field, see
// DESIGN.md). If any of g/s/p/o was never interned, no quad using it
// could ever have existed, so this is a no-op reported via the ok
// return rather than an error.
func (b *Batch) AddTombstone(g, subj, pred, obj term.Value) (ok bool, err error) {
	gi, giok, err := b.store.lookupGraphAtom(g)
	if err != nil || !giok {
		return false, err
	}
	si, siok, err := b.store.atoms.Lookup(subj.Encode())
	if err != nil || !siok {
		return false, err
	}
	pi, piok, err := b.store.atoms.Lookup(pred.Encode())
	if err != nil || !piok {
		return false, err
	}
	oi, oiok, err := b.store.atoms.Lookup(obj.Encode())
	if err != nil || !oiok {
		return false, err
	}
	// validFrom/validTo on a tombstone entry are never consulted:
	// resolveAsOf rejects any group member flagged tombstone before it
	// ever looks at that member's own validity window.
	b.wb.AddTombstone(gi, si, pi, oi, 0, btree.MaxValidTo)
	return true, nil
}

func (b *Batch) settle() {
	b.settled = true
	b.store.mu.Unlock()
}

// Commit flushes the batch to the WAL with a single fsync, applies its
// records to the index, triggers a checkpoint if due, and releases the
// write lock (spec §4.4 step 3).
func (b *Batch) Commit() error {
	if b.settled {
		return &InvariantError{Msg: "batch already committed or rolled back"}
	}
	defer b.settle()

	if err := b.wb.Commit(); err != nil {
		b.store.poison(err)
		return &StorageError{Op: "commit batch", Err: err}
	}
	for _, r := range b.wb.Records() {
		if err := b.store.applyRecord(r); err != nil {
			return err
		}
	}
	return b.store.maybeCheckpointLocked()
}

// Rollback discards the batch and releases the write lock; no WAL
// record and no index mutation from this batch is ever observable
// (spec §4.4 step 4).
func (b *Batch) Rollback() error {
	if b.settled {
		return &InvariantError{Msg: "batch already committed or rolled back"}
	}
	defer b.settle()
	if err := b.wb.Rollback(); err != nil {
		return &StorageError{Op: "rollback batch", Err: err}
	}
	return nil
}

func (s *Store) internQuad(g, subj, pred, obj term.Value) (gi, si, pi, oi uint64, err error) {
	if gi, err = s.internGraphAtom(g); err != nil {
		return
	}
	if si, err = s.atoms.Intern(subj.Encode()); err != nil {
		return
	}
	if pi, err = s.atoms.Intern(pred.Encode()); err != nil {
		return
	}
	if oi, err = s.atoms.Intern(obj.Encode()); err != nil {
		return
	}
	return
}
