package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quadcore/quadcore/internal/sparql/ast"
)

// Print renders n as a parenthesized prefix form. Parsing the result
// back with Parse reproduces a logical plan equal (by Print again) to
// n, satisfying testable property 7 (plan print/parse idempotence).
// The only gap is EXISTS/NOT EXISTS sub-patterns inside an expression:
// those print as an opaque placeholder and parse back as an empty
// group, since ast.Expr.Group is an AST pattern (not a plan Node) and
// round-tripping it would require carrying the parser's AST types into
// this package's print grammar for no benefit to plan-level testing.
func Print(n Node) string {
	var sb strings.Builder
	printNode(&sb, n)
	return sb.String()
}

func printNode(sb *strings.Builder, n Node) {
	switch t := n.(type) {
	case BGP:
		sb.WriteString("(bgp")
		for _, p := range t.Patterns {
			sb.WriteString(" (triple ")
			printTerm(sb, p.Subject)
			sb.WriteByte(' ')
			printTerm(sb, p.Predicate)
			sb.WriteByte(' ')
			printTerm(sb, p.Object)
			sb.WriteByte(')')
		}
		sb.WriteByte(')')
	case Join:
		kind := "join"
		if t.LeftOuter {
			kind = "lojoin"
		}
		fmt.Fprintf(sb, "(%s ", kind)
		printNode(sb, t.Left)
		sb.WriteByte(' ')
		printNode(sb, t.Right)
		sb.WriteByte(')')
	case Union:
		sb.WriteString("(union ")
		printNode(sb, t.Left)
		sb.WriteByte(' ')
		printNode(sb, t.Right)
		sb.WriteByte(')')
	case Minus:
		sb.WriteString("(minus ")
		printNode(sb, t.Left)
		sb.WriteByte(' ')
		printNode(sb, t.Right)
		sb.WriteByte(')')
	case Graph:
		sb.WriteString("(graph ")
		printTerm(sb, t.Term)
		sb.WriteByte(' ')
		printNode(sb, t.Inner)
		sb.WriteByte(')')
	case Filter:
		sb.WriteString("(filter ")
		printExpr(sb, t.Expr)
		sb.WriteByte(' ')
		printNode(sb, t.Inner)
		sb.WriteByte(')')
	case Bind:
		sb.WriteString("(bind ?" + t.Var + " ")
		printExpr(sb, t.Expr)
		sb.WriteByte(' ')
		printNode(sb, t.Inner)
		sb.WriteByte(')')
	case Values:
		sb.WriteString("(values (")
		for i, v := range t.Vars {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString("?" + v)
		}
		sb.WriteString(") (")
		for i, row := range t.Rows {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte('(')
			for j, term := range row {
				if j > 0 {
					sb.WriteByte(' ')
				}
				if t.Unbound[i][j] {
					sb.WriteString("UNDEF")
				} else {
					printTerm(sb, term)
				}
			}
			sb.WriteByte(')')
		}
		sb.WriteByte(')')
		if t.Inner != nil {
			sb.WriteByte(' ')
			printNode(sb, t.Inner)
		}
		sb.WriteByte(')')
	case Service:
		sb.WriteString("(service ")
		if t.Silent {
			sb.WriteString("silent ")
		}
		printTerm(sb, t.Target)
		sb.WriteByte(' ')
		printNode(sb, t.Inner)
		sb.WriteByte(')')
	case SubSelect:
		sb.WriteString("(subselect ")
		if t.Query != nil && t.Query.Root != nil {
			printNode(sb, t.Query.Root)
		} else {
			sb.WriteString("(bgp)")
		}
		sb.WriteByte(')')
	default:
		sb.WriteString("(unknown)")
	}
}

func printTerm(sb *strings.Builder, t ast.Term) {
	switch t.Kind {
	case ast.TermVar:
		sb.WriteString("?" + t.Text)
	case ast.TermIRI:
		sb.WriteString("<" + t.Text + ">")
	case ast.TermBlank:
		sb.WriteString("_:" + t.Text)
	case ast.TermLiteral:
		sb.WriteString(strconv.Quote(t.Text))
		if t.Lang != "" {
			sb.WriteString("@" + t.Lang)
		} else if t.Datatype != "" {
			sb.WriteString("^^<" + t.Datatype + ">")
		}
	}
}

func printExpr(sb *strings.Builder, e ast.Expr) {
	switch e.Kind {
	case ast.ExprTerm:
		printTerm(sb, e.Term)
	case ast.ExprUnary:
		sb.WriteString("(" + e.Op + " ")
		printExpr(sb, e.Args[0])
		sb.WriteByte(')')
	case ast.ExprBinary:
		sb.WriteString("(" + e.Op + " ")
		printExpr(sb, e.Args[0])
		sb.WriteByte(' ')
		printExpr(sb, e.Args[1])
		sb.WriteByte(')')
	case ast.ExprCall:
		sb.WriteString("(call " + e.Func)
		for _, a := range e.Args {
			sb.WriteByte(' ')
			printExpr(sb, a)
		}
		sb.WriteByte(')')
	case ast.ExprIn, ast.ExprNotIn:
		kind := "in"
		if e.Kind == ast.ExprNotIn {
			kind = "notin"
		}
		sb.WriteString("(" + kind)
		for _, a := range e.Args {
			sb.WriteByte(' ')
			printExpr(sb, a)
		}
		sb.WriteByte(')')
	case ast.ExprExists:
		sb.WriteString("(exists)")
	case ast.ExprNotExists:
		sb.WriteString("(notexists)")
	}
}
