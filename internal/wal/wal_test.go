package wal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitThenReplayAppliesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gspo.wal")
	w, err := Open(path)
	require.NoError(t, err)

	b := w.BeginBatch()
	b.AddInsert(0, 1, 2, 3, 1000, MaxValidToForTest)
	require.NoError(t, b.Commit())
	require.NoError(t, w.Close())

	w2, err := Open(path)
	require.NoError(t, err)
	defer w2.Close()

	var applied []Record
	maxTx, err := w2.Replay(0, func(r Record) error {
		applied = append(applied, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, uint64(1), applied[0].Subject)
	assert.Equal(t, b.TxID(), maxTx)
}

// MaxValidToForTest avoids importing the btree package just for a
// sentinel value in this unit test.
const MaxValidToForTest int64 = 1<<63 - 1

func TestRollbackLeavesNothingVisible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gspo.wal")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	b := w.BeginBatch()
	b.AddInsert(0, 1, 2, 3, 0, MaxValidToForTest)
	b.AddInsert(0, 4, 5, 6, 0, MaxValidToForTest)
	require.NoError(t, b.Rollback())

	assert.Equal(t, int64(0), w.Size())

	var applied []Record
	_, err = w.Replay(0, func(r Record) error {
		applied = append(applied, r)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestTornTailStopsReplayAndTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gspo.wal")
	w, err := Open(path)
	require.NoError(t, err)

	b := w.BeginBatch()
	b.AddInsert(0, 1, 2, 3, 0, MaxValidToForTest)
	require.NoError(t, b.Commit())

	// Simulate a torn write: append garbage shorter than one record.
	garbage := make([]byte, 10)
	_, err = w.f.WriteAt(garbage, w.Size())
	require.NoError(t, err)
	w.size += 10

	var applied []Record
	_, err = w.Replay(0, func(r Record) error {
		applied = append(applied, r)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, applied, 1)
	assert.Equal(t, int64(RecordSize), w.Size())
}

func TestCheckpointMarkerAndTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gspo.wal")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	b := w.BeginBatch()
	b.AddInsert(0, 1, 2, 3, 0, MaxValidToForTest)
	require.NoError(t, b.Commit())

	require.NoError(t, w.AppendCheckpointMarker(b.TxID()))
	require.NoError(t, w.TruncateTo(w.Size()))
	assert.Equal(t, int64(0), w.Size())
}
