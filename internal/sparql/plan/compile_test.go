package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/quadcore/quadcore/internal/sparql/ast"
)

func triple(s, p, o ast.Term) ast.TriplePattern {
	return ast.TriplePattern{Subject: s, Predicate: p, Object: o}
}

func TestCompile_SingleBGP(t *testing.T) {
	q := &ast.SelectQuery{
		Form: ast.FormSelect,
		Where: &ast.GroupGraphPattern{
			Elements: []ast.PatternElement{{
				Kind:    ast.PatternBGP,
				Triples: []ast.TriplePattern{triple(varTerm("s"), iriTerm("p"), varTerm("o"))},
			}},
		},
	}
	out, err := Compile(q)
	require.NoError(t, err)
	bgp, ok := out.Root.(BGP)
	require.True(t, ok)
	assert.Len(t, bgp.Patterns, 1)
}

func TestCompile_OptionalBuildsLeftOuterJoin(t *testing.T) {
	q := &ast.SelectQuery{
		Where: &ast.GroupGraphPattern{
			Elements: []ast.PatternElement{
				{Kind: ast.PatternBGP, Triples: []ast.TriplePattern{triple(varTerm("s"), iriTerm("p"), varTerm("o"))}},
				{Kind: ast.PatternOptional, Optional: &ast.GroupGraphPattern{
					Elements: []ast.PatternElement{{Kind: ast.PatternBGP, Triples: []ast.TriplePattern{triple(varTerm("o"), iriTerm("q"), varTerm("x"))}}},
				}},
			},
		},
	}
	out, err := Compile(q)
	require.NoError(t, err)
	join, ok := out.Root.(Join)
	require.True(t, ok)
	assert.True(t, join.LeftOuter)
}

func TestCompile_FilterWrapsWholeGroup(t *testing.T) {
	q := &ast.SelectQuery{
		Where: &ast.GroupGraphPattern{
			Elements: []ast.PatternElement{
				{Kind: ast.PatternBGP, Triples: []ast.TriplePattern{triple(varTerm("s"), iriTerm("p"), varTerm("o"))}},
				{Kind: ast.PatternFilter, Filter: ast.Expr{Kind: ast.ExprTerm, Term: varTerm("o")}},
				{Kind: ast.PatternBGP, Triples: []ast.TriplePattern{triple(varTerm("o"), iriTerm("q"), varTerm("x"))}},
			},
		},
	}
	out, err := Compile(q)
	require.NoError(t, err)
	f, ok := out.Root.(Filter)
	require.True(t, ok, "expected the filter to wrap the whole join tree, got %T", out.Root)
	_, ok = f.Inner.(Join)
	assert.True(t, ok)
}

func TestCompile_LeadingMinusIsNoOp(t *testing.T) {
	q := &ast.SelectQuery{
		Where: &ast.GroupGraphPattern{
			Elements: []ast.PatternElement{
				{Kind: ast.PatternMinus, Minus: &ast.GroupGraphPattern{
					Elements: []ast.PatternElement{{Kind: ast.PatternBGP, Triples: []ast.TriplePattern{triple(varTerm("s"), iriTerm("p"), varTerm("o"))}}},
				}},
			},
		},
	}
	out, err := Compile(q)
	require.NoError(t, err)
	assert.Equal(t, BGP{}, out.Root)
}

func TestCompile_BindWithoutPrecedingPatternErrors(t *testing.T) {
	q := &ast.SelectQuery{
		Where: &ast.GroupGraphPattern{
			Elements: []ast.PatternElement{
				{Kind: ast.PatternBind, BindVar: "x", BindExpr: ast.Expr{Kind: ast.ExprTerm, Term: varTerm("y")}},
			},
		},
	}
	_, err := Compile(q)
	require.Error(t, err)
	var ce *CompileError
	assert.ErrorAs(t, err, &ce)
}

func TestCompile_EmptyGroupIsEmptyBGP(t *testing.T) {
	q := &ast.SelectQuery{Where: &ast.GroupGraphPattern{}}
	out, err := Compile(q)
	require.NoError(t, err)
	bgp, ok := out.Root.(BGP)
	require.True(t, ok)
	assert.Empty(t, bgp.Patterns)
}

func TestCompile_StarProjectionUsesRootVars(t *testing.T) {
	q := &ast.SelectQuery{
		Star: true,
		Where: &ast.GroupGraphPattern{
			Elements: []ast.PatternElement{{Kind: ast.PatternBGP, Triples: []ast.TriplePattern{triple(varTerm("s"), iriTerm("p"), varTerm("o"))}}},
		},
	}
	out, err := Compile(q)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s", "o"}, out.ProjectedVars)
}

func TestCompile_ProjectionAlias(t *testing.T) {
	q := &ast.SelectQuery{
		Projection: []ast.ProjectItem{{As: "renamed", Expr: ast.Expr{Kind: ast.ExprTerm, Term: varTerm("s")}}},
		Where: &ast.GroupGraphPattern{
			Elements: []ast.PatternElement{{Kind: ast.PatternBGP, Triples: []ast.TriplePattern{triple(varTerm("s"), iriTerm("p"), varTerm("o"))}}},
		},
	}
	out, err := Compile(q)
	require.NoError(t, err)
	require.Contains(t, out.ProjectExprs, "renamed")
	assert.Equal(t, []string{"renamed"}, out.ProjectedVars)
}
