package physical

import (
	"strings"

	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/term"
)

// serviceOperator is ServiceScan (spec §4.7/§6): it delegates to an
// injected ServiceExecutor rather than embedding an HTTP client. The
// remote result table is pulled once, on first Advance, then iterated
// and joined against the row exactly like valuesOperator's inline
// table: a SERVICE clause's results are just a table of bindings from
// the query engine's point of view.
type serviceOperator struct {
	ctx    *Context
	silent bool
	target ast.Term
	group  *ast.GroupGraphPattern

	rows      []map[string]term.Value
	idx       int
	prefixLen int
	started   bool
}

func (s *serviceOperator) Advance() (bool, error) {
	if !s.started {
		s.started = true
		s.prefixLen = s.ctx.Row.ActiveLen()
		if err := s.execute(); err != nil {
			if s.silent {
				s.rows = nil
			} else {
				return false, err
			}
		}
	}
	for s.idx < len(s.rows) {
		row := s.rows[s.idx]
		s.idx++
		s.ctx.Row.Truncate(s.prefixLen)
		if s.tryBind(row) {
			return true, nil
		}
	}
	return false, nil
}

func (s *serviceOperator) execute() error {
	if s.ctx.Service == nil {
		return &ServiceUnavailableError{Detail: "no executor configured"}
	}
	endpoint, err := s.ctx.resolveTerm(s.target)
	if err != nil {
		return err
	}
	if endpoint == nil || endpoint.Kind != term.KindIRI {
		return &ServiceUnavailableError{Detail: "SERVICE target did not resolve to an IRI"}
	}
	_, rows, err := s.ctx.Service.Select(endpoint.Lexical, printGroupAsSelect(s.group))
	if err != nil {
		return err
	}
	s.rows = rows
	return nil
}

func (s *serviceOperator) tryBind(row map[string]term.Value) bool {
	pending := make(map[string]term.Value, len(row))
	for name, v := range row {
		if bound, ok, err := s.ctx.Row.Get(name); err == nil && ok {
			if !term.SameTerm(bound, v) {
				return false
			}
			continue
		}
		if _, inSchema := s.ctx.Row.Schema().SlotFor(name); !inSchema {
			continue // the outer schema never projects or filters on this var
		}
		pending[name] = v
	}
	for name, v := range pending {
		s.ctx.Row.Bind(name, v)
	}
	return true
}

func (s *serviceOperator) Close() {}

// printGroupAsSelect renders group back into a minimal "SELECT * WHERE
// { ... }" query text to ship to the remote endpoint. It handles the
// pattern kinds a federated query realistically needs (triples,
// filter, optional, union, bind, graph, minus) and leaves any other
// element (VALUES, a nested SERVICE, a sub-SELECT) out of the printed
// group rather than failing the whole query. A best-effort
// remote query is still useful, and SILENT callers already expect
// SERVICE to degrade gracefully.
func printGroupAsSelect(group *ast.GroupGraphPattern) string {
	var sb strings.Builder
	sb.WriteString("SELECT * WHERE ")
	printGroup(&sb, group)
	return sb.String()
}

func printGroup(sb *strings.Builder, group *ast.GroupGraphPattern) {
	sb.WriteString("{ ")
	if group != nil {
		for _, el := range group.Elements {
			printElement(sb, el)
		}
	}
	sb.WriteString("} ")
}

func printElement(sb *strings.Builder, el ast.PatternElement) {
	switch el.Kind {
	case ast.PatternBGP:
		for _, t := range el.Triples {
			sb.WriteString(printTerm(t.Subject) + " " + printTerm(t.Predicate) + " " + printTerm(t.Object) + " . ")
		}
	case ast.PatternFilter:
		sb.WriteString("FILTER(" + printExpr(el.Filter) + ") ")
	case ast.PatternOptional:
		sb.WriteString("OPTIONAL ")
		printGroup(sb, el.Optional)
	case ast.PatternUnion:
		printGroup(sb, el.UnionLeft)
		sb.WriteString("UNION ")
		printGroup(sb, el.UnionRight)
	case ast.PatternBind:
		sb.WriteString("BIND(" + printExpr(el.BindExpr) + " AS ?" + el.BindVar + ") ")
	case ast.PatternGraph:
		sb.WriteString("GRAPH " + printTerm(el.GraphTerm) + " ")
		printGroup(sb, el.GraphPattern)
	case ast.PatternMinus:
		sb.WriteString("MINUS ")
		printGroup(sb, el.Minus)
	}
}

func printTerm(t ast.Term) string {
	switch t.Kind {
	case ast.TermVar:
		return "?" + t.Text
	case ast.TermIRI:
		return "<" + t.Text + ">"
	case ast.TermBlank:
		return "_:" + t.Text
	case ast.TermLiteral:
		lit := `"` + t.Text + `"`
		if t.Lang != "" {
			return lit + "@" + t.Lang
		}
		if t.Datatype != "" {
			return lit + "^^<" + t.Datatype + ">"
		}
		return lit
	default:
		return ""
	}
}

func printExpr(e ast.Expr) string {
	switch e.Kind {
	case ast.ExprTerm:
		return printTerm(e.Term)
	case ast.ExprUnary:
		return e.Op + printExpr(e.Args[0])
	case ast.ExprBinary:
		return printExpr(e.Args[0]) + " " + e.Op + " " + printExpr(e.Args[1])
	case ast.ExprCall:
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = printExpr(a)
		}
		return e.Func + "(" + strings.Join(parts, ", ") + ")"
	default:
		return "true"
	}
}
