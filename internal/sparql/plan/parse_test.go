package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/quadcore/quadcore/internal/sparql/ast"
)

func roundTrip(t *testing.T, n Node) Node {
	t.Helper()
	text := Print(n)
	got, err := Parse(text)
	require.NoError(t, err, "printed form: %s", text)
	assert.Equal(t, text, Print(got), "print(parse(print(n))) should equal print(n)")
	return got
}

func TestPrintParse_BGP(t *testing.T) {
	n := BGP{Patterns: []TriplePattern{
		{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")},
	}}
	roundTrip(t, n)
}

func TestPrintParse_JoinAndOptional(t *testing.T) {
	left := BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}}}
	right := BGP{Patterns: []TriplePattern{{Subject: varTerm("o"), Predicate: iriTerm("http://ex/q"), Object: varTerm("x")}}}
	roundTrip(t, Join{Left: left, Right: right})
	roundTrip(t, Join{Left: left, Right: right, LeftOuter: true})
}

func TestPrintParse_UnionMinus(t *testing.T) {
	left := BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}}}
	right := BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/q"), Object: varTerm("o")}}}
	roundTrip(t, Union{Left: left, Right: right})
	roundTrip(t, Minus{Left: left, Right: right})
}

func TestPrintParse_GraphAndBind(t *testing.T) {
	inner := BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}}}
	roundTrip(t, Graph{Term: iriTerm("http://ex/g1"), Inner: inner})
	roundTrip(t, Graph{Term: varTerm("g"), Inner: inner})
	roundTrip(t, Bind{Var: "sum", Expr: ast.Expr{Kind: ast.ExprTerm, Term: varTerm("o")}, Inner: inner})
}

func TestPrintParse_FilterExpressions(t *testing.T) {
	inner := BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}}}

	unary := ast.Expr{Kind: ast.ExprUnary, Op: "!", Args: []ast.Expr{{Kind: ast.ExprTerm, Term: varTerm("o")}}}
	roundTrip(t, Filter{Expr: unary, Inner: inner})

	binary := ast.Expr{Kind: ast.ExprBinary, Op: "=", Args: []ast.Expr{
		{Kind: ast.ExprTerm, Term: varTerm("o")},
		{Kind: ast.ExprTerm, Term: ast.Term{Kind: ast.TermLiteral, Text: "hello world", Lang: "en"}},
	}}
	roundTrip(t, Filter{Expr: binary, Inner: inner})

	call := ast.Expr{Kind: ast.ExprCall, Func: "STRLEN", Args: []ast.Expr{{Kind: ast.ExprTerm, Term: varTerm("o")}}}
	roundTrip(t, Filter{Expr: call, Inner: inner})

	in := ast.Expr{Kind: ast.ExprIn, Args: []ast.Expr{
		{Kind: ast.ExprTerm, Term: varTerm("o")},
		{Kind: ast.ExprTerm, Term: iriTerm("http://ex/a")},
		{Kind: ast.ExprTerm, Term: iriTerm("http://ex/b")},
	}}
	roundTrip(t, Filter{Expr: in, Inner: inner})
}

func TestPrintParse_LiteralWithDatatype(t *testing.T) {
	inner := BGP{Patterns: []TriplePattern{{
		Subject:   varTerm("s"),
		Predicate: iriTerm("http://ex/p"),
		Object:    ast.Term{Kind: ast.TermLiteral, Text: "42", Datatype: "http://www.w3.org/2001/XMLSchema#integer"},
	}}}
	roundTrip(t, inner)
}

func TestPrintParse_BlankNode(t *testing.T) {
	inner := BGP{Patterns: []TriplePattern{{
		Subject:   ast.Term{Kind: ast.TermBlank, Text: "b0"},
		Predicate: iriTerm("http://ex/p"),
		Object:    varTerm("o"),
	}}}
	roundTrip(t, inner)
}

func TestPrintParse_Values(t *testing.T) {
	inner := BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}}}
	v := Values{
		Vars: []string{"s", "o"},
		Rows: [][]ast.Term{
			{iriTerm("http://ex/a"), {}},
			{iriTerm("http://ex/b"), varTerm("ignored")},
		},
		Unbound: [][]bool{{false, true}, {false, false}},
		Inner:   inner,
	}
	roundTrip(t, v)
}

func TestPrintParse_ValuesWithoutInner(t *testing.T) {
	v := Values{
		Vars:    []string{"s"},
		Rows:    [][]ast.Term{{iriTerm("http://ex/a")}},
		Unbound: [][]bool{{false}},
	}
	roundTrip(t, v)
}

func TestPrintParse_Service(t *testing.T) {
	inner := BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}}}
	roundTrip(t, Service{Target: iriTerm("http://ex/sparql"), Inner: inner})
	roundTrip(t, Service{Silent: true, Target: iriTerm("http://ex/sparql"), Inner: inner})
}

func TestPrintParse_SubSelect(t *testing.T) {
	inner := BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/p"), Object: varTerm("o")}}}
	roundTrip(t, SubSelect{Query: &Query{Root: inner}})
}

func TestParse_RejectsTrailingTokens(t *testing.T) {
	_, err := Parse("(bgp) (bgp)")
	assert.Error(t, err)
}

func TestParse_RejectsUnterminatedInput(t *testing.T) {
	_, err := Parse("(bgp")
	assert.Error(t, err)
}
