// Package plan lowers a parsed SPARQL AST (internal/sparql/ast) into a
// logical plan: a sealed tree of node types one step closer to
// execution than the AST, with pattern variables already collected per
// node and filters still attached to the node that can evaluate them.
//
// The sealing follows the teacher's queryir package: Node is an
// interface with an unexported marker method, so only this package can
// add variants and a type switch over it can be exhaustive.
package plan

import "github.com/quadcore/quadcore/internal/sparql/ast"

// Node is a logical plan node. Sealed to this package.
type Node interface {
	node()
	// Vars returns every variable this node's subtree can bind, in a
	// stable order (first-seen, depth-first) so the planner and the
	// binding.Schema built from it agree on slot order.
	Vars() []string
}

// TriplePattern is a single (subject, predicate, object) pattern, the
// logical-plan leaf corresponding to ast.TriplePattern.
type TriplePattern struct {
	Graph                      *ast.Term // nil: any graph (default-dataset union)
	Subject, Predicate, Object ast.Term
}

func (TriplePattern) node() {}

// Vars returns the triple pattern's variable terms, subject then
// predicate then object (graph, if a variable, comes first since it is
// the outermost-bound position in GSPO order).
func (t TriplePattern) Vars() []string {
	var out []string
	if t.Graph != nil && t.Graph.Kind == ast.TermVar {
		out = append(out, t.Graph.Text)
	}
	for _, term := range [3]ast.Term{t.Subject, t.Predicate, t.Object} {
		if term.Kind == ast.TermVar {
			out = appendUnique(out, term.Text)
		}
	}
	return out
}

// BGP is a basic graph pattern: a set of triple patterns joined by
// shared variables, evaluated together as one MultiPatternScan (spec
// §4.7). Optimize decides join order among Patterns after
// Compile; BGP itself just groups them.
type BGP struct {
	Patterns []TriplePattern
}

func (BGP) node() {}

func (b BGP) Vars() []string {
	var out []string
	for _, p := range b.Patterns {
		out = appendUniqueAll(out, p.Vars())
	}
	return out
}

// Join is a generic join between two subplans, used for OPTIONAL
// (LeftOuter=true), UNION's sibling wiring via explicit operator kind,
// and a subquery paired with its outer pattern.
type Join struct {
	Left, Right Node
	LeftOuter   bool // true for OPTIONAL (spec §4.7 physical mirrors this as an outer nested-loop)
}

func (Join) node() {}

func (j Join) Vars() []string {
	out := append([]string(nil), j.Left.Vars()...)
	return appendUniqueAll(out, j.Right.Vars())
}

// Union is the logical form of SPARQL UNION: rows from Left or Right,
// column-unioned (a variable bound only on one side is simply absent
// from rows produced by the other).
type Union struct {
	Left, Right Node
}

func (Union) node() {}

func (u Union) Vars() []string {
	out := append([]string(nil), u.Left.Vars()...)
	return appendUniqueAll(out, u.Right.Vars())
}

// Minus is the logical form of SPARQL MINUS: rows of Left whose
// bindings are not compatible with any row of Right on their shared
// variables.
type Minus struct {
	Left, Right Node
}

func (Minus) node() {}
func (m Minus) Vars() []string { return m.Left.Vars() }

// Graph wraps Inner with a GRAPH clause's graph term, which may be a
// bound IRI (ordinary per-graph scan) or a variable (CrossGraphMultiPatternScan,
// spec §4.7).
type Graph struct {
	Term  ast.Term
	Inner Node
}

func (Graph) node() {}

func (g Graph) Vars() []string {
	out := g.Inner.Vars()
	if g.Term.Kind == ast.TermVar {
		out = appendUnique(out, g.Term.Text)
	}
	return out
}

// Filter wraps Inner with a predicate expression, pushed down by the
// planner to sit immediately above the first node that binds every
// variable the expression references (spec §4.8 "Filter pushdown").
type Filter struct {
	Expr  ast.Expr
	Inner Node
}

func (Filter) node() {}
func (f Filter) Vars() []string { return f.Inner.Vars() }

// Bind introduces a computed variable, evaluated per-row and appended
// to the binding row (spec §4.7 "BIND").
type Bind struct {
	Var   string
	Expr  ast.Expr
	Inner Node
}

func (Bind) node() {}
func (b Bind) Vars() []string { return appendUnique(append([]string(nil), b.Inner.Vars()...), b.Var) }

// Values is an inline data table joined against Inner (nil Inner means
// VALUES is the entire pattern, as in a WHERE clause that is only a
// VALUES block).
type Values struct {
	Vars    []string
	Rows    [][]ast.Term
	Unbound [][]bool
	Inner   Node
}

func (Values) node() {}

func (v Values) Vars() []string {
	if v.Inner == nil {
		return append([]string(nil), v.Vars...)
	}
	out := append([]string(nil), v.Inner.Vars()...)
	return appendUniqueAll(out, v.Vars)
}

// Service wraps a federated SPARQL SERVICE clause (spec §4.7
// ServiceScan / spec §6 wire contract); the core only carries the
// target term and inner pattern, the HTTP execution is injected at
// physical-plan construction time.
type Service struct {
	Silent bool
	Target ast.Term
	Inner  Node
	// Group is the raw source pattern Inner was lowered from. SERVICE
	// is a network boundary (spec §6): the physical executor ships
	// Group to the remote endpoint as SPARQL text rather than running
	// Inner itself, so the original pattern has to survive lowering
	// even though every other node type only keeps the lowered form.
	Group *ast.GroupGraphPattern
}

func (Service) node() {}
func (s Service) Vars() []string { return s.Inner.Vars() }

// SubSelect embeds a fully independent nested SELECT (spec §4.7
// SubQueryScan); Query is compiled and planned separately.
type SubSelect struct {
	Query *Query
}

func (SubSelect) node() {}

func (s SubSelect) Vars() []string {
	if s.Query == nil {
		return nil
	}
	return s.Query.ProjectedVars
}

func appendUnique(vars []string, name string) []string {
	for _, v := range vars {
		if v == name {
			return vars
		}
	}
	return append(vars, name)
}

func appendUniqueAll(vars []string, add []string) []string {
	for _, a := range add {
		vars = appendUnique(vars, a)
	}
	return vars
}
