package physical

import (
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/plan"
)

// compileNode lowers one logical plan.Node into its Operator, under
// graph (the nearest enclosing GRAPH term, nil at the top of a plan
// with no GRAPH wrapper; see scan.go's doc comment on how a Graph
// node is realized by threading this parameter rather than by a
// dedicated operator type).
func compileNode(ctx *Context, n plan.Node, graph *ast.Term) (Operator, error) {
	switch t := n.(type) {
	case plan.TriplePattern:
		return buildTripleScan(ctx, graph, t), nil

	case plan.BGP:
		patterns := make([]ast.TriplePattern, len(t.Patterns))
		for i, p := range t.Patterns {
			patterns[i] = ast.TriplePattern{Subject: p.Subject, Predicate: p.Predicate, Object: p.Object}
		}
		return newMultiScan(ctx, graph, patterns), nil

	case plan.Join:
		left, err := compileNode(ctx, t.Left, graph)
		if err != nil {
			return nil, err
		}
		right := t.Right
		buildRight := func() Operator {
			op, err := compileNode(ctx, right, graph)
			if err != nil {
				return erroringOperator{err: err}
			}
			return op
		}
		return newJoinOperator(ctx, left, buildRight, t.LeftOuter), nil

	case plan.Union:
		left, right := t.Left, t.Right
		buildLeft := func() Operator {
			op, err := compileNode(ctx, left, graph)
			if err != nil {
				return erroringOperator{err: err}
			}
			return op
		}
		buildRight := func() Operator {
			op, err := compileNode(ctx, right, graph)
			if err != nil {
				return erroringOperator{err: err}
			}
			return op
		}
		return newUnionOperator(ctx, buildLeft, buildRight), nil

	case plan.Minus:
		left, err := compileNode(ctx, t.Left, graph)
		if err != nil {
			return nil, err
		}
		right := t.Right
		buildRight := func() Operator {
			op, err := compileNode(ctx, right, graph)
			if err != nil {
				return erroringOperator{err: err}
			}
			return op
		}
		return newMinusOperator(ctx, left, buildRight, t.Right.Vars()), nil

	case plan.Graph:
		g := t.Term
		return compileNode(ctx, t.Inner, &g)

	case plan.Filter:
		inner, err := compileNode(ctx, t.Inner, graph)
		if err != nil {
			return nil, err
		}
		return &filterOperator{ctx: ctx, inner: inner, expr: t.Expr}, nil

	case plan.Bind:
		inner, err := compileNode(ctx, t.Inner, graph)
		if err != nil {
			return nil, err
		}
		return &bindOperator{ctx: ctx, inner: inner, varName: t.Var, expr: t.Expr}, nil

	case plan.Values:
		var inner Operator
		if t.Inner != nil {
			var err error
			inner, err = compileNode(ctx, t.Inner, graph)
			if err != nil {
				return nil, err
			}
		}
		return &valuesOperator{ctx: ctx, vars: t.Vars, rows: t.Rows, unbound: t.Unbound, inner: inner}, nil

	case plan.Service:
		return &serviceOperator{ctx: ctx, silent: t.Silent, target: t.Target, group: t.Group}, nil

	case plan.SubSelect:
		return &subSelectOperator{ctx: ctx, query: t.Query}, nil

	default:
		return nil, &PlanError{Msg: "unrecognized logical plan node"}
	}
}

// erroringOperator lets a build-time error (PlanError) surface
// through the first Advance call of a lazily-built operator (e.g. a
// join's right side, built only once the left side yields a row)
// instead of requiring compileNode's build-closures to return errors
// directly.
type erroringOperator struct{ err error }

func (e erroringOperator) Advance() (bool, error) { return false, e.err }
func (e erroringOperator) Close()                 {}
