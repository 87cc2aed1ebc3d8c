package btree

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestTree(t *testing.T) *Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gspo.tdb")
	tr, err := Open(path, 8)
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestInsertSeekFindsKey(t *testing.T) {
	tr := openTestTree(t)
	k := EncodeKey(0, 10, 20, 30, 1000, MaxValidTo, 1)
	require.NoError(t, tr.Insert(k, false))

	cur, err := tr.Seek(k)
	require.NoError(t, err)
	defer cur.Close()
	require.True(t, cur.Valid())
	got, flag := cur.Entry()
	assert.Equal(t, k, got)
	assert.Equal(t, flagLive, flag)
}

func TestDuplicateInsertIsNoOp(t *testing.T) {
	tr := openTestTree(t)
	k := EncodeKey(0, 1, 2, 3, 0, MaxValidTo, 1)
	require.NoError(t, tr.Insert(k, false))
	require.NoError(t, tr.Insert(k, false))

	cur, err := tr.Seek(EncodeKey(0, 0, 0, 0, 0, 0, 0))
	require.NoError(t, err)
	defer cur.Close()
	count := 0
	for cur.Valid() {
		count++
		ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	assert.Equal(t, 1, count)
}

func TestScanYieldsMonotonicOrderAfterManyInserts(t *testing.T) {
	tr := openTestTree(t)

	const n = 2000
	keys := make([]Key, n)
	for i := 0; i < n; i++ {
		keys[i] = EncodeKey(0, uint64(rand.Intn(1000)), uint64(rand.Intn(1000)), uint64(i), 0, MaxValidTo, int64(i))
	}
	for _, k := range keys {
		require.NoError(t, tr.Insert(k, false))
	}

	cur, err := tr.Seek(Key{})
	require.NoError(t, err)
	defer cur.Close()

	var prev Key
	first := true
	count := 0
	for cur.Valid() {
		k, _ := cur.Entry()
		if !first {
			assert.True(t, prev.Compare(k) <= 0, "keys must be non-decreasing")
		}
		prev = k
		first = false
		count++
		ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	assert.Equal(t, n, count)
}

func TestMarkDeletedSetsTombstoneFlag(t *testing.T) {
	tr := openTestTree(t)
	k := EncodeKey(0, 5, 5, 5, 0, MaxValidTo, 1)
	require.NoError(t, tr.Insert(k, false))
	require.NoError(t, tr.MarkDeleted(k))

	cur, err := tr.Seek(k)
	require.NoError(t, err)
	defer cur.Close()
	_, flag := cur.Entry()
	assert.Equal(t, flagTombstone, flag)
}

func TestReopenPreservesRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gspo.tdb")
	tr, err := Open(path, 8)
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		k := EncodeKey(0, uint64(i), 1, 2, 0, MaxValidTo, int64(i))
		require.NoError(t, tr.Insert(k, false))
	}
	require.NoError(t, tr.Checkpoint(0))
	require.NoError(t, tr.Close())

	tr2, err := Open(path, 8)
	require.NoError(t, err)
	defer tr2.Close()

	cur, err := tr2.Seek(Key{})
	require.NoError(t, err)
	defer cur.Close()
	count := 0
	for cur.Valid() {
		count++
		ok, err := cur.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	assert.Equal(t, 500, count)
}
