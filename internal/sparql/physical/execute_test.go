package physical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadcore/quadcore/internal/quadstore"
	"github.com/quadcore/quadcore/internal/sparql/parser"
	"github.com/quadcore/quadcore/internal/sparql/plan"
	"github.com/quadcore/quadcore/internal/term"
)

func openTestStore(t *testing.T) *quadstore.Store {
	t.Helper()
	s, err := quadstore.Open(quadstore.Options{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// run parses, compiles, optimizes, and executes src against s under
// ModeCurrent, the configuration cmd/quadctl's default query path
// uses. Returns the projected variables and materialized rows.
func run(t *testing.T, s *quadstore.Store, src string) ([]string, []map[string]term.Value) {
	t.Helper()
	q, err := parser.ParseQuery(src)
	require.NoError(t, err)
	compiled, err := plan.Compile(q)
	require.NoError(t, err)
	optimized := plan.Optimize(compiled, plan.NoStatistics)

	cfg := Config{Store: s, Mode: ModeCurrent, Now: func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }}
	s.AcquireRead()
	defer s.ReleaseRead()
	vars, rows, err := Execute(cfg, optimized)
	require.NoError(t, err)
	return vars, rows
}

func seedFriends(t *testing.T, s *quadstore.Store) {
	t.Helper()
	knows := term.IRI("http://ex/knows")
	name := term.IRI("http://ex/name")
	age := term.IRI("http://ex/age")
	alice := term.IRI("http://ex/alice")
	bob := term.IRI("http://ex/bob")
	carol := term.IRI("http://ex/carol")

	require.NoError(t, s.AddCurrent(quadstore.DefaultGraph, alice, name, term.PlainString("Alice")))
	require.NoError(t, s.AddCurrent(quadstore.DefaultGraph, alice, age, term.Integer(30)))
	require.NoError(t, s.AddCurrent(quadstore.DefaultGraph, bob, name, term.PlainString("Bob")))
	require.NoError(t, s.AddCurrent(quadstore.DefaultGraph, bob, age, term.Integer(25)))
	require.NoError(t, s.AddCurrent(quadstore.DefaultGraph, alice, knows, bob))
	require.NoError(t, s.AddCurrent(quadstore.DefaultGraph, carol, name, term.PlainString("Carol")))
}

func TestExecute_BasicGraphPattern(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	vars, rows := run(t, s, `SELECT ?s ?name WHERE { ?s <http://ex/name> ?name }`)
	assert.ElementsMatch(t, []string{"s", "name"}, vars)
	assert.Len(t, rows, 3)
}

func TestExecute_Join_SelfJoinOnSharedVariable(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	_, rows := run(t, s, `SELECT ?name ?age WHERE { ?p <http://ex/name> ?name . ?p <http://ex/age> ?age }`)
	require.Len(t, rows, 2)
	got := map[string]int64{}
	for _, r := range rows {
		got[r["name"].Lexical] = r["age"].IntVal
	}
	assert.Equal(t, int64(30), got["Alice"])
	assert.Equal(t, int64(25), got["Bob"])
}

func TestExecute_Optional_UnmatchedLeavesVarUnbound(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	_, rows := run(t, s, `SELECT ?name ?knowsName WHERE {
		?p <http://ex/name> ?name .
		OPTIONAL { ?p <http://ex/knows> ?f . ?f <http://ex/name> ?knowsName }
	}`)
	require.Len(t, rows, 3)
	byName := map[string]map[string]term.Value{}
	for _, r := range rows {
		byName[r["name"].Lexical] = r
	}
	assert.Equal(t, "Bob", byName["Alice"]["knowsName"].Lexical)
	_, bound := byName["Bob"]["knowsName"]
	assert.False(t, bound, "OPTIONAL should leave ?knowsName absent from the row when it doesn't match")
	_, bound = byName["Carol"]["knowsName"]
	assert.False(t, bound)
}

func TestExecute_Union(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	_, rows := run(t, s, `SELECT ?name WHERE {
		{ ?p <http://ex/name> ?name . FILTER(?name = "Alice") }
		UNION
		{ ?p <http://ex/name> ?name . FILTER(?name = "Carol") }
	}`)
	var names []string
	for _, r := range rows {
		names = append(names, r["name"].Lexical)
	}
	assert.ElementsMatch(t, []string{"Alice", "Carol"}, names)
}

func TestExecute_Minus_ExcludesOverlappingDomain(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	_, rows := run(t, s, `SELECT ?name WHERE {
		?p <http://ex/name> ?name .
		MINUS { ?p <http://ex/knows> ?f }
	}`)
	var names []string
	for _, r := range rows {
		names = append(names, r["name"].Lexical)
	}
	assert.ElementsMatch(t, []string{"Bob", "Carol"}, names, "alice knows someone, so MINUS excludes her")
}

func TestExecute_Filter(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	_, rows := run(t, s, `SELECT ?name WHERE { ?p <http://ex/age> ?age . ?p <http://ex/name> ?name . FILTER(?age > 26) }`)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0]["name"].Lexical)
}

func TestExecute_Bind(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	_, rows := run(t, s, `SELECT ?name ?decade WHERE { ?p <http://ex/name> ?name . ?p <http://ex/age> ?age . BIND(?age - 20 AS ?decade) }`)
	require.Len(t, rows, 2)
	for _, r := range rows {
		if r["name"].Lexical == "Alice" {
			assert.Equal(t, int64(10), r["decade"].IntVal)
		}
	}
}

func TestExecute_Values(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	_, rows := run(t, s, `SELECT ?name WHERE {
		?p <http://ex/name> ?name .
		VALUES ?name { "Alice" "Carol" }
	}`)
	var names []string
	for _, r := range rows {
		names = append(names, r["name"].Lexical)
	}
	assert.ElementsMatch(t, []string{"Alice", "Carol"}, names)
}

func TestExecute_Distinct(t *testing.T) {
	s := openTestStore(t)
	knows := term.IRI("http://ex/knows")
	a := term.IRI("http://ex/a")
	b := term.IRI("http://ex/b")
	c := term.IRI("http://ex/c")
	require.NoError(t, s.AddCurrent(quadstore.DefaultGraph, a, knows, b))
	require.NoError(t, s.AddCurrent(quadstore.DefaultGraph, a, knows, c))

	_, rows := run(t, s, `SELECT DISTINCT ?s WHERE { ?s <http://ex/knows> ?o }`)
	assert.Len(t, rows, 1)
}

func TestExecute_OrderByLimitOffset(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	_, rows := run(t, s, `SELECT ?name WHERE { ?p <http://ex/name> ?name } ORDER BY ?name LIMIT 1 OFFSET 1`)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob", rows[0]["name"].Lexical)
}

func TestExecute_Limit0_ReturnsNoRowsWithoutRunningTheQuery(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	vars, rows := run(t, s, `SELECT ?name WHERE { ?p <http://ex/name> ?name } LIMIT 0`)
	assert.Equal(t, []string{"name"}, vars)
	assert.Empty(t, rows)
}

func TestExecute_Ask(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	_, rows := run(t, s, `ASK { ?p <http://ex/name> "Alice" }`)
	assert.NotEmpty(t, rows, "ASK's boolean result is derived from row presence by the caller")

	_, rows = run(t, s, `ASK { ?p <http://ex/name> "Nobody" }`)
	assert.Empty(t, rows)
}

func TestExecute_Graph_ScopesToNamedGraph(t *testing.T) {
	s := openTestStore(t)
	g1 := term.IRI("http://ex/graph1")
	name := term.IRI("http://ex/name")
	alice := term.IRI("http://ex/alice")
	require.NoError(t, s.AddCurrent(g1, alice, name, term.PlainString("Alice")))

	_, rows := run(t, s, `SELECT ?name WHERE { GRAPH <http://ex/graph1> { ?s <http://ex/name> ?name } }`)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0]["name"].Lexical)

	_, rows = run(t, s, `SELECT ?name WHERE { ?s <http://ex/name> ?name }`)
	assert.Len(t, rows, 1, "a pattern with no GRAPH wrapper scans the union of every graph")
}

func TestExecute_SubSelect(t *testing.T) {
	s := openTestStore(t)
	seedFriends(t, s)

	_, rows := run(t, s, `SELECT ?name WHERE {
		{ SELECT ?p ?name WHERE { ?p <http://ex/name> ?name } }
		?p <http://ex/age> ?age
	}`)
	var names []string
	for _, r := range rows {
		names = append(names, r["name"].Lexical)
	}
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)
}
