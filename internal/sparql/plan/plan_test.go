package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/quadcore/quadcore/internal/sparql/ast"
)

func varTerm(name string) ast.Term { return ast.Term{Kind: ast.TermVar, Text: name} }
func iriTerm(iri string) ast.Term  { return ast.Term{Kind: ast.TermIRI, Text: iri} }

func TestTriplePattern_Vars(t *testing.T) {
	tp := TriplePattern{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}
	assert.Equal(t, []string{"s", "o"}, tp.Vars())
}

func TestTriplePattern_VarsDedup(t *testing.T) {
	tp := TriplePattern{Subject: varTerm("s"), Predicate: varTerm("s"), Object: varTerm("o")}
	assert.Equal(t, []string{"s", "o"}, tp.Vars())
}

func TestBGP_ImplementsNode(t *testing.T) {
	var n Node = BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("p"), Object: varTerm("o")}}}
	assert.NotNil(t, n)
	switch n.(type) {
	case BGP:
	default:
		t.Fatal("unexpected node type")
	}
}

func TestJoin_Vars_UnionsBothSides(t *testing.T) {
	left := BGP{Patterns: []TriplePattern{{Subject: varTerm("a"), Predicate: iriTerm("p"), Object: varTerm("b")}}}
	right := BGP{Patterns: []TriplePattern{{Subject: varTerm("b"), Predicate: iriTerm("q"), Object: varTerm("c")}}}
	j := Join{Left: left, Right: right}
	assert.Equal(t, []string{"a", "b", "c"}, j.Vars())
}

func TestMinus_VarsOnlyLeft(t *testing.T) {
	left := BGP{Patterns: []TriplePattern{{Subject: varTerm("a"), Predicate: iriTerm("p"), Object: varTerm("b")}}}
	right := BGP{Patterns: []TriplePattern{{Subject: varTerm("c"), Predicate: iriTerm("q"), Object: varTerm("d")}}}
	m := Minus{Left: left, Right: right}
	assert.Equal(t, []string{"a", "b"}, m.Vars())
}

func TestBind_VarsAppendsBindVar(t *testing.T) {
	inner := BGP{Patterns: []TriplePattern{{Subject: varTerm("a"), Predicate: iriTerm("p"), Object: varTerm("b")}}}
	b := Bind{Var: "sum", Expr: ast.Expr{Kind: ast.ExprTerm, Term: varTerm("a")}, Inner: inner}
	assert.Equal(t, []string{"a", "b", "sum"}, b.Vars())
}

func TestValues_VarsWithoutInner(t *testing.T) {
	v := Values{Vars: []string{"x", "y"}}
	assert.Equal(t, []string{"x", "y"}, v.Vars())
}

func TestValues_VarsWithInnerUnion(t *testing.T) {
	inner := BGP{Patterns: []TriplePattern{{Subject: varTerm("x"), Predicate: iriTerm("p"), Object: varTerm("z")}}}
	v := Values{Vars: []string{"x", "y"}, Inner: inner}
	assert.Equal(t, []string{"x", "z", "y"}, v.Vars())
}

func TestSubSelect_VarsFromQuery(t *testing.T) {
	s := SubSelect{Query: &Query{ProjectedVars: []string{"a", "b"}}}
	assert.Equal(t, []string{"a", "b"}, s.Vars())
}

func TestSubSelect_NilQueryVars(t *testing.T) {
	var s SubSelect
	assert.Nil(t, s.Vars())
}

func TestNode_SealedInterface(t *testing.T) {
	nodes := []Node{
		BGP{},
		Join{Left: BGP{}, Right: BGP{}},
		Union{Left: BGP{}, Right: BGP{}},
		Minus{Left: BGP{}, Right: BGP{}},
		Graph{Term: iriTerm("g"), Inner: BGP{}},
		Filter{Expr: ast.Expr{Kind: ast.ExprTerm, Term: varTerm("x")}, Inner: BGP{}},
		Bind{Var: "x", Inner: BGP{}},
		Values{Vars: []string{"x"}},
		Service{Target: iriTerm("http://ex/sparql"), Inner: BGP{}},
		SubSelect{Query: &Query{}},
	}
	for _, n := range nodes {
		switch n.(type) {
		case BGP, Join, Union, Minus, Graph, Filter, Bind, Values, Service, SubSelect:
		default:
			t.Fatalf("unexpected node type %T", n)
		}
	}
}
