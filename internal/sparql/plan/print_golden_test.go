package plan

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/quadcore/quadcore/internal/sparql/ast"
)

func litTerm(text, datatype string) ast.Term {
	return ast.Term{Kind: ast.TermLiteral, Text: text, Datatype: datatype}
}

// TestPrint_Golden snapshots Print's prefix-form rendering of a few
// representative plan shapes against checked-in fixtures, the same
// golden-comparison idiom the teacher uses for trace snapshots
// (internal/harness/golden.go): run with -update to regenerate after
// a deliberate change to Print's output grammar.
func TestPrint_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	t.Run("filter-join", func(t *testing.T) {
		n := Filter{
			Expr: ast.Expr{Kind: ast.ExprBinary, Op: "=", Args: []ast.Expr{
				{Kind: ast.ExprTerm, Term: varTerm("age")},
				{Kind: ast.ExprTerm, Term: litTerm("30", "http://www.w3.org/2001/XMLSchema#integer")},
			}},
			Inner: Join{
				Left:  BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/age"), Object: varTerm("age")}}},
				Right: BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/name"), Object: varTerm("name")}}},
			},
		}
		g.Assert(t, "filter-join", []byte(Print(n)))
	})

	t.Run("union-minus-bind", func(t *testing.T) {
		n := Bind{
			Var:  "label",
			Expr: ast.Expr{Kind: ast.ExprCall, Func: "CONCAT", Args: []ast.Expr{{Kind: ast.ExprTerm, Term: varTerm("name")}}},
			Inner: Minus{
				Left: Union{
					Left:  BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/type"), Object: iriTerm("http://ex/Person")}}},
					Right: BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/type"), Object: iriTerm("http://ex/Org")}}},
				},
				Right: BGP{Patterns: []TriplePattern{{Subject: varTerm("s"), Predicate: iriTerm("http://ex/deleted"), Object: litTerm("true", "http://www.w3.org/2001/XMLSchema#boolean")}}},
			},
		}
		g.Assert(t, "union-minus-bind", []byte(Print(n)))
	})
}
