package plan

import "github.com/quadcore/quadcore/internal/sparql/ast"

// Query is a fully lowered logical plan for one SPARQL query form: the
// join/filter/optional/union tree (Root) plus the solution modifiers
// and output shape the physical executor and result materializer need.
type Query struct {
	Form ast.QueryForm

	Distinct bool
	Reduced  bool

	Star          bool
	ProjectedVars []string
	ProjectExprs  map[string]ast.Expr // alias -> expr, only for "(expr AS ?alias)" projections

	ConstructTemplate []ast.TriplePattern
	DescribeTargets   []ast.Term

	Root Node // nil for a WHERE-less DESCRIBE

	GroupBy []ast.Expr
	Having  []ast.Expr
	OrderBy []ast.OrderTerm

	Limit, Offset int64
}

// Compile lowers a parsed ast.SelectQuery into a logical Query. Filters
// are collected from wherever in the source group they occurred and
// re-wrapped around the whole join tree unplaced; Optimize (planner.go)
// is responsible for pushing each one down to its proper place.
func Compile(q *ast.SelectQuery) (*Query, error) {
	out := &Query{
		Form:              q.Form,
		Distinct:          q.Distinct,
		Reduced:           q.Reduced,
		Star:              q.Star,
		ConstructTemplate: q.ConstructTemplate,
		DescribeTargets:   q.DescribeTargets,
		GroupBy:           q.GroupBy,
		Having:            q.Having,
		OrderBy:           q.OrderBy,
		Limit:             q.Limit,
		Offset:            q.Offset,
	}
	for _, item := range q.Projection {
		if item.As != "" {
			out.ProjectedVars = append(out.ProjectedVars, item.As)
			if out.ProjectExprs == nil {
				out.ProjectExprs = map[string]ast.Expr{}
			}
			out.ProjectExprs[item.As] = item.Expr
		} else if item.Expr.Kind == ast.ExprTerm && item.Expr.Term.Kind == ast.TermVar {
			out.ProjectedVars = append(out.ProjectedVars, item.Expr.Term.Text)
		}
	}

	if q.Where != nil {
		root, err := lowerGroup(q.Where)
		if err != nil {
			return nil, err
		}
		out.Root = root
	}

	if out.Star && out.Root != nil {
		out.ProjectedVars = out.Root.Vars()
	}

	return out, nil
}

// CompileGroup lowers a bare GroupGraphPattern into a Node, the entry
// point EXISTS/NOT EXISTS need (internal/sparql/physical, eval.ExistsFunc):
// the inner group of an EXISTS clause has no projection or solution
// modifiers of its own, just a pattern to test for at least one match.
func CompileGroup(g *ast.GroupGraphPattern) (Node, error) {
	return lowerGroup(g)
}

// lowerGroup lowers one GroupGraphPattern's elements into a single Node:
// triples fold into BGPs, OPTIONAL/UNION/MINUS/GRAPH/BIND/VALUES/SERVICE/
// sub-SELECT each join onto the accumulated tree, and FILTER expressions
// are collected and wrapped around the finished tree (unplaced; see
// Compile's doc comment).
func lowerGroup(g *ast.GroupGraphPattern) (Node, error) {
	var root Node
	var filters []ast.Expr

	join := func(n Node) {
		if root == nil {
			root = n
			return
		}
		root = Join{Left: root, Right: n}
	}

	for _, el := range g.Elements {
		switch el.Kind {
		case ast.PatternBGP:
			patterns := make([]TriplePattern, len(el.Triples))
			for i, t := range el.Triples {
				patterns[i] = TriplePattern{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object}
			}
			join(BGP{Patterns: patterns})
		case ast.PatternFilter:
			filters = append(filters, el.Filter)
		case ast.PatternOptional:
			inner, err := lowerGroup(el.Optional)
			if err != nil {
				return nil, err
			}
			if root == nil {
				root = inner
			} else {
				root = Join{Left: root, Right: inner, LeftOuter: true}
			}
		case ast.PatternUnion:
			left, err := lowerGroup(el.UnionLeft)
			if err != nil {
				return nil, err
			}
			right, err := lowerGroup(el.UnionRight)
			if err != nil {
				return nil, err
			}
			join(Union{Left: left, Right: right})
		case ast.PatternMinus:
			inner, err := lowerGroup(el.Minus)
			if err != nil {
				return nil, err
			}
			if root == nil {
				// A leading MINUS has nothing to subtract from; treat
				// as a structural no-op rather than an error.
				continue
			}
			root = Minus{Left: root, Right: inner}
		case ast.PatternGraph:
			inner, err := lowerGroup(el.GraphPattern)
			if err != nil {
				return nil, err
			}
			join(Graph{Term: el.GraphTerm, Inner: inner})
		case ast.PatternBind:
			if root == nil {
				return nil, &CompileError{Msg: "BIND requires a preceding pattern to extend"}
			}
			root = Bind{Var: el.BindVar, Expr: el.BindExpr, Inner: root}
		case ast.PatternValues:
			v := Values{Vars: el.ValuesVars, Rows: el.ValuesRows, Unbound: el.ValuesUnbound}
			if root == nil {
				root = v
			} else {
				v.Inner = root
				root = v
			}
		case ast.PatternService:
			inner, err := lowerGroup(el.ServicePattern)
			if err != nil {
				return nil, err
			}
			join(Service{Silent: el.ServiceSilent, Target: el.ServiceTerm, Inner: inner, Group: el.ServicePattern})
		case ast.PatternSubSelect:
			sub, err := Compile(el.SubSelect)
			if err != nil {
				return nil, err
			}
			join(SubSelect{Query: sub})
		default:
			return nil, &CompileError{Msg: "unrecognized pattern element kind"}
		}
	}

	for _, f := range filters {
		root = Filter{Expr: f, Inner: root}
	}
	if root == nil {
		root = BGP{} // an empty group matches the empty binding once
	}
	return root, nil
}

// CompileError reports a structurally invalid group graph pattern that
// parsed successfully but cannot lower to a logical plan (e.g. a
// leading BIND with nothing to extend).
type CompileError struct{ Msg string }

func (e *CompileError) Error() string { return "plan: " + e.Msg }
