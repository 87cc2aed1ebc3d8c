package wal

import (
	"os"
	"sync"
	"sync/atomic"
)

// WAL is an append-with-fsync log of fixed-size records.
type WAL struct {
	mu       sync.Mutex
	f        *os.File
	size     int64 // bytes currently committed to the file
	nextTxID atomic.Uint64
}

// Open opens or creates the WAL file at path. It does not replay;
// callers needing recovery use Records(fromOffset) explicitly (the
// quadstore facade drives replay against the index).
func Open(path string) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, &StorageError{Op: "open WAL", Err: err}
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &StorageError{Op: "stat WAL", Err: err}
	}
	w := &WAL{f: f, size: fi.Size()}
	return w, nil
}

// Close closes the WAL file handle.
func (w *WAL) Close() error { return w.f.Close() }

// Size returns the current committed size of the WAL file in bytes.
func (w *WAL) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// SetNextTxID seeds the in-process transaction counter, used after
// recovery to continue numbering past the highest txId replayed.
func (w *WAL) SetNextTxID(next uint64) { w.nextTxID.Store(next) }

// Batch accumulates records in memory between BeginBatch and
// Commit/Rollback (spec §4.4 write path).
type Batch struct {
	wal        *WAL
	txID       uint64
	startOff   int64
	buf        []byte
	committed  bool
}

// BeginBatch starts a new batch with a fresh monotonic transaction id.
// Callers are expected to hold the store's exclusive write lock for
// the lifetime of the batch (spec §4.4 step 1).
func (w *WAL) BeginBatch() *Batch {
	w.mu.Lock()
	start := w.size
	w.mu.Unlock()
	return &Batch{
		wal:      w,
		txID:     w.nextTxID.Add(1),
		startOff: start,
	}
}

// TxID returns the batch's transaction id, reused as the composite
// key's txTime field (see DESIGN.md).
func (b *Batch) TxID() uint64 { return b.txID }

// AddInsert appends an insert record to the batch's in-memory buffer.
func (b *Batch) AddInsert(graph, subject, predicate, object uint64, validFrom, validTo int64) {
	b.add(KindInsert, graph, subject, predicate, object, validFrom, validTo)
}

// AddTombstone appends a tombstone record to the batch's in-memory buffer.
func (b *Batch) AddTombstone(graph, subject, predicate, object uint64, validFrom, validTo int64) {
	b.add(KindTombstone, graph, subject, predicate, object, validFrom, validTo)
}

func (b *Batch) add(kind Kind, graph, subject, predicate, object uint64, validFrom, validTo int64) {
	rec := Record{
		Kind: kind, TxID: b.txID,
		Graph: graph, Subject: subject, Predicate: predicate, Object: object,
		ValidFrom: validFrom, ValidTo: validTo,
	}
	encoded := rec.Marshal()
	b.buf = append(b.buf, encoded[:]...)
}

// Records returns the batch's pending records, decoded, in the order
// they were added. Used by the facade to apply them to the index
// after Commit.
func (b *Batch) Records() []Record {
	n := len(b.buf) / RecordSize
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		r, ok := unmarshalRecord(b.buf[i*RecordSize : (i+1)*RecordSize])
		if ok {
			out = append(out, r)
		}
	}
	return out
}

// Commit flushes the batch's buffer to the WAL file with a single
// write and a single fsync amortized across every record in the batch
// (spec §4.4 step 3), then marks the batch committed. The caller
// applies the batch's records to the index after Commit returns.
func (b *Batch) Commit() error {
	if b.committed {
		return &InvariantError{Msg: "batch already committed"}
	}
	b.wal.mu.Lock()
	defer b.wal.mu.Unlock()
	if len(b.buf) > 0 {
		if _, err := b.wal.f.WriteAt(b.buf, b.startOff); err != nil {
			return &StorageError{Op: "write WAL batch", Err: err}
		}
		if err := b.wal.f.Sync(); err != nil {
			return &StorageError{Op: "fsync WAL", Err: err}
		}
	}
	b.wal.size = b.startOff + int64(len(b.buf))
	b.committed = true
	return nil
}

// Rollback discards the batch. Since records are only ever written to
// the file at Commit time, rollback never leaves a partially-applied
// batch in the file; the explicit truncate to startOff is defensive
// and a no-op in the common case (spec §4.4 step 4).
func (b *Batch) Rollback() error {
	b.wal.mu.Lock()
	defer b.wal.mu.Unlock()
	if b.wal.size > b.startOff {
		if err := b.wal.f.Truncate(b.startOff); err != nil {
			return &StorageError{Op: "truncate WAL on rollback", Err: err}
		}
		b.wal.size = b.startOff
	}
	b.buf = nil
	return nil
}

// AppendCheckpointMarker writes a single checkpoint-marker record
// directly (outside the batch API) and fsyncs, used by
// quadstore.Checkpoint (spec §4.4 "Checkpoint").
func (w *WAL) AppendCheckpointMarker(txID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec := Record{Kind: KindCheckpoint, TxID: txID}
	encoded := rec.Marshal()
	if _, err := w.f.WriteAt(encoded[:], w.size); err != nil {
		return &StorageError{Op: "write checkpoint marker", Err: err}
	}
	if err := w.f.Sync(); err != nil {
		return &StorageError{Op: "fsync checkpoint marker", Err: err}
	}
	w.size += int64(RecordSize)
	return nil
}

// TruncateTo drops the WAL file up to the given offset, used after a
// checkpoint has durably flushed everything before it to the index
// (spec §4.4 "Checkpoint").
func (w *WAL) TruncateTo(offset int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	remaining := make([]byte, w.size-offset)
	if len(remaining) > 0 {
		if _, err := w.f.ReadAt(remaining, offset); err != nil {
			return &StorageError{Op: "read WAL tail before truncate", Err: err}
		}
	}
	if err := w.f.Truncate(0); err != nil {
		return &StorageError{Op: "truncate WAL", Err: err}
	}
	if len(remaining) > 0 {
		if _, err := w.f.WriteAt(remaining, 0); err != nil {
			return &StorageError{Op: "rewrite WAL tail", Err: err}
		}
	}
	if err := w.f.Sync(); err != nil {
		return &StorageError{Op: "fsync WAL after truncate", Err: err}
	}
	w.size = int64(len(remaining))
	return nil
}
