package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/quadcore/quadcore/internal/sparql/ast"
)

type mapStats map[string]uint64

func (m mapStats) PredicateCardinality(iri string) (uint64, bool) {
	v, ok := m[iri]
	return v, ok
}

func TestOrderPatterns_PrefersLowerCardinality(t *testing.T) {
	rare := TriplePattern{Subject: varTerm("s"), Predicate: iriTerm("http://ex/rare"), Object: varTerm("o")}
	common := TriplePattern{Subject: varTerm("s"), Predicate: iriTerm("http://ex/common"), Object: varTerm("o2")}
	stats := mapStats{"http://ex/rare": 5, "http://ex/common": 5_000_000}

	out := orderPatterns([]TriplePattern{common, rare}, stats)
	assert.Equal(t, rare, out[0])
	assert.Equal(t, common, out[1])
}

func TestOrderPatterns_TiesPreferSharedVariables(t *testing.T) {
	first := TriplePattern{Subject: varTerm("a"), Predicate: iriTerm("http://ex/p1"), Object: varTerm("b")}
	joinable := TriplePattern{Subject: varTerm("b"), Predicate: iriTerm("http://ex/p2"), Object: varTerm("c")}
	unrelated := TriplePattern{Subject: varTerm("x"), Predicate: iriTerm("http://ex/p3"), Object: varTerm("y")}
	stats := mapStats{"http://ex/p1": 10, "http://ex/p2": 10, "http://ex/p3": 10}

	out := orderPatterns([]TriplePattern{first, unrelated, joinable}, stats)
	assert.Equal(t, first, out[0])
	assert.Equal(t, joinable, out[1])
	assert.Equal(t, unrelated, out[2])
}

func TestEstimateCardinality_VariablePredicateIsLeastSelective(t *testing.T) {
	bound := TriplePattern{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}
	variable := TriplePattern{Subject: varTerm("s"), Predicate: varTerm("p"), Object: varTerm("o")}
	stats := mapStats{"http://ex/p": 100}

	assert.Less(t, estimateCardinality(bound, stats), estimateCardinality(variable, stats))
}

func TestEstimateCardinality_BoundPositionsTightenEstimate(t *testing.T) {
	allVar := TriplePattern{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}
	boundSubj := TriplePattern{Subject: iriTerm("http://ex/s1"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}
	stats := mapStats{"http://ex/p": 1000}

	assert.Less(t, estimateCardinality(boundSubj, stats), estimateCardinality(allVar, stats))
}

func TestPushFilter_PushesIntoQualifyingJoinSide(t *testing.T) {
	left := BGP{Patterns: []TriplePattern{{Subject: varTerm("a"), Predicate: iriTerm("p"), Object: varTerm("b")}}}
	right := BGP{Patterns: []TriplePattern{{Subject: varTerm("c"), Predicate: iriTerm("q"), Object: varTerm("d")}}}
	tree := Join{Left: left, Right: right}
	expr := ast.Expr{Kind: ast.ExprTerm, Term: varTerm("c")}

	out := pushFilter(tree, expr)
	j, ok := out.(Join)
	if !ok {
		t.Fatalf("expected Join, got %T", out)
	}
	_, ok = j.Right.(Filter)
	assert.True(t, ok, "filter should have been pushed into the right side")
	_, ok = j.Left.(Filter)
	assert.False(t, ok, "filter should not appear on the unrelated left side")
}

func TestPushFilter_WrapsAtTopWhenNoSideQualifies(t *testing.T) {
	left := BGP{Patterns: []TriplePattern{{Subject: varTerm("a"), Predicate: iriTerm("p"), Object: varTerm("b")}}}
	right := BGP{Patterns: []TriplePattern{{Subject: varTerm("c"), Predicate: iriTerm("q"), Object: varTerm("d")}}}
	tree := Join{Left: left, Right: right}
	// references a variable from both sides: cannot push into either child alone
	expr := ast.Expr{Kind: ast.ExprBinary, Op: "=", Args: []ast.Expr{
		{Kind: ast.ExprTerm, Term: varTerm("a")},
		{Kind: ast.ExprTerm, Term: varTerm("c")},
	}}

	out := pushFilter(tree, expr)
	_, ok := out.(Filter)
	assert.True(t, ok)
}

func TestPushFilter_DoesNotDescendIntoUnion(t *testing.T) {
	left := BGP{Patterns: []TriplePattern{{Subject: varTerm("a"), Predicate: iriTerm("p"), Object: varTerm("b")}}}
	right := BGP{Patterns: []TriplePattern{{Subject: varTerm("a"), Predicate: iriTerm("q"), Object: varTerm("b")}}}
	union := Union{Left: left, Right: right}
	expr := ast.Expr{Kind: ast.ExprTerm, Term: varTerm("a")}

	out := pushFilter(union, expr)
	f, ok := out.(Filter)
	assert.True(t, ok)
	_, ok = f.Inner.(Union)
	assert.True(t, ok)
}

func TestOptimize_NilRootIsNoOp(t *testing.T) {
	q := &Query{}
	out := Optimize(q, NoStatistics)
	assert.Nil(t, out.Root)
}

func TestOptimize_ReordersNestedBGP(t *testing.T) {
	rare := TriplePattern{Subject: varTerm("s"), Predicate: iriTerm("http://ex/rare"), Object: varTerm("o")}
	common := TriplePattern{Subject: varTerm("s"), Predicate: iriTerm("http://ex/common"), Object: varTerm("o2")}
	stats := mapStats{"http://ex/rare": 1, "http://ex/common": 9_000_000}

	q := &Query{Root: BGP{Patterns: []TriplePattern{common, rare}}}
	out := Optimize(q, stats)
	bgp := out.Root.(BGP)
	assert.Equal(t, rare, bgp.Patterns[0])
}
