package wal

// Replay reads every well-formed record from fromOffset to the current
// end of file, calling apply for each. A torn record at the tail (bad
// magic or CRC) stops replay and truncates the WAL to the last valid
// record boundary (spec §4.4 "Recovery on open", steps 2-3). Replay
// also returns the highest txId observed, so the caller can seed
// SetNextTxID past it.
func (w *WAL) Replay(fromOffset int64, apply func(Record) error) (maxTxID uint64, err error) {
	w.mu.Lock()
	size := w.size
	f := w.f
	w.mu.Unlock()

	offset := fromOffset
	for offset+int64(RecordSize) <= size {
		buf := make([]byte, RecordSize)
		if _, rerr := f.ReadAt(buf, offset); rerr != nil {
			break
		}
		rec, ok := unmarshalRecord(buf)
		if !ok {
			break // torn tail
		}
		if rec.Kind != KindCheckpoint {
			if aerr := apply(rec); aerr != nil {
				return maxTxID, aerr
			}
		}
		if rec.TxID > maxTxID {
			maxTxID = rec.TxID
		}
		offset += int64(RecordSize)
	}

	if offset != size {
		w.mu.Lock()
		terr := w.f.Truncate(offset)
		if terr == nil {
			w.size = offset
		}
		w.mu.Unlock()
		if terr != nil {
			return maxTxID, &StorageError{Op: "truncate torn WAL tail", Err: terr}
		}
	}

	return maxTxID, nil
}
