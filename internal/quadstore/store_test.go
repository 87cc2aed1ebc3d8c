package quadstore

import (
	"testing"

	"github.com/quadcore/quadcore/internal/btree"
	"github.com/quadcore/quadcore/internal/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func drain(t *testing.T, it *Iterator) []Quad {
	t.Helper()
	defer it.Close()
	var rows []Quad
	for {
		ok, err := it.Advance()
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, it.Row())
	}
	return rows
}

func TestAddCurrentThenQueryCurrent(t *testing.T) {
	s := openTestStore(t)
	alice := term.IRI("ex:alice")
	knows := term.IRI("ex:knows")
	bob := term.IRI("ex:bob")

	require.NoError(t, s.AddCurrent(DefaultGraph, alice, knows, bob))

	s.AcquireRead()
	it, err := s.QueryCurrent(Pattern{Subject: &alice})
	require.NoError(t, err)
	rows := drain(t, it)
	s.ReleaseRead()

	require.Len(t, rows, 1)
	assert.True(t, term.SameTerm(rows[0].Object, bob))
	assert.Equal(t, btree.MaxValidTo, rows[0].ValidTo)
}

func TestDeleteCurrentHidesFromQueryCurrent(t *testing.T) {
	s := openTestStore(t)
	alice := term.IRI("ex:alice")
	age := term.IRI("ex:age")
	thirty := term.Integer(30)

	require.NoError(t, s.AddCurrent(DefaultGraph, alice, age, thirty))
	require.NoError(t, s.DeleteCurrent(DefaultGraph, alice, age, thirty))

	s.AcquireRead()
	it, err := s.QueryCurrent(Pattern{Subject: &alice})
	require.NoError(t, err)
	rows := drain(t, it)
	s.ReleaseRead()

	assert.Empty(t, rows)
}

func TestQueryAsOfBeforeValidFrom(t *testing.T) {
	s := openTestStore(t)
	g, sub, p, o := DefaultGraph, term.IRI("ex:s"), term.IRI("ex:p"), term.IRI("ex:o")

	require.NoError(t, s.Add(g, sub, p, o, 1000, btree.MaxValidTo))

	s.AcquireRead()
	before, err := s.QueryAsOf(Pattern{Subject: &sub}, 500)
	require.NoError(t, err)
	rowsBefore := drain(t, before)

	after, err := s.QueryAsOf(Pattern{Subject: &sub}, 1500)
	require.NoError(t, err)
	rowsAfter := drain(t, after)
	s.ReleaseRead()

	assert.Empty(t, rowsBefore)
	require.Len(t, rowsAfter, 1)
}

func TestQueryRangeOverlap(t *testing.T) {
	s := openTestStore(t)
	g, sub, p, o := DefaultGraph, term.IRI("ex:s"), term.IRI("ex:p"), term.IRI("ex:o")
	require.NoError(t, s.Add(g, sub, p, o, 100, 200))

	s.AcquireRead()
	it, err := s.QueryRange(Pattern{Subject: &sub}, 150, 300)
	require.NoError(t, err)
	rows := drain(t, it)
	s.ReleaseRead()

	require.Len(t, rows, 1)
}

func TestBatchRollbackLeavesNothingVisible(t *testing.T) {
	s := openTestStore(t)
	sub := term.IRI("ex:s")

	b, err := s.BeginBatch()
	require.NoError(t, err)
	require.NoError(t, b.AddInsert(DefaultGraph, sub, term.IRI("ex:p"), term.IRI("ex:o"), 0, btree.MaxValidTo))
	require.NoError(t, b.Rollback())

	s.AcquireRead()
	it, err := s.QueryCurrent(Pattern{Subject: &sub})
	require.NoError(t, err)
	rows := drain(t, it)
	s.ReleaseRead()

	assert.Empty(t, rows)
}

func TestReopenRecoversCommittedQuads(t *testing.T) {
	dir := t.TempDir()
	sub := term.IRI("ex:s")

	s, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.AddCurrent(DefaultGraph, sub, term.IRI("ex:p"), term.IRI("ex:o")))
	require.NoError(t, s.Close())

	s2, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	defer s2.Close()

	s2.AcquireRead()
	it, err := s2.QueryCurrent(Pattern{Subject: &sub})
	require.NoError(t, err)
	rows := drain(t, it)
	s2.ReleaseRead()

	require.Len(t, rows, 1)
}

func TestNamedGraphsExcludesDefault(t *testing.T) {
	s := openTestStore(t)
	exGraph := term.IRI("ex:graph1")
	require.NoError(t, s.AddCurrent(exGraph, term.IRI("ex:s"), term.IRI("ex:p"), term.IRI("ex:o")))
	require.NoError(t, s.AddCurrent(DefaultGraph, term.IRI("ex:s2"), term.IRI("ex:p2"), term.IRI("ex:o2")))

	s.AcquireRead()
	graphs, err := s.NamedGraphs()
	s.ReleaseRead()
	require.NoError(t, err)

	require.Len(t, graphs, 1)
	assert.True(t, term.SameTerm(graphs[0], exGraph))
}
