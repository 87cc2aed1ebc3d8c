package physical

import (
	"github.com/quadcore/quadcore/internal/quadstore"
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/plan"
	"github.com/quadcore/quadcore/internal/term"
)

// scanState is the triple-pattern scan's explicit state machine (spec
// §4.7 "State machine (triple pattern scan)").
type scanState int

const (
	scanNotStarted scanState = iota
	scanSeeking
	scanStreaming
	scanExhausted
)

// tripleScan is TriplePatternScan. A nil Graph means "any graph" (the
// default-dataset union, spec §4.7 DefaultGraphUnionScan); a variable
// Graph term realizes CrossGraphMultiPatternScan by binding the
// returned quad's graph into the row like any other variable position.
// Both named scan kinds in spec §4.7 are this same operator
// parametrized by what Graph resolves to, not distinct types.
type tripleScan struct {
	ctx     *Context
	graph   *ast.Term // nil: pattern carries no GRAPH wrapper
	pattern ast.TriplePattern

	state scanState
	it    *quadstore.Iterator
}

func newTripleScan(ctx *Context, graph *ast.Term, pattern ast.TriplePattern) *tripleScan {
	return &tripleScan{ctx: ctx, graph: graph, pattern: pattern}
}

func (s *tripleScan) Advance() (bool, error) {
	for {
		switch s.state {
		case scanNotStarted:
			p, err := s.buildPattern()
			if err != nil {
				s.state = scanExhausted
				return false, err
			}
			s.state = scanSeeking
			it, err := s.ctx.query(p)
			if err != nil {
				s.state = scanExhausted
				return false, err
			}
			s.it = it
			s.state = scanStreaming
		case scanStreaming:
			ok, err := s.it.Advance()
			if err != nil {
				s.state = scanExhausted
				return false, err
			}
			if !ok {
				s.state = scanExhausted
				s.it.Close()
				s.it = nil
				return false, nil
			}
			if s.tryBind(s.it.Row()) {
				return true, nil
			}
			// self-join mismatch on this row; keep streaming
		case scanExhausted:
			return false, nil
		default:
			return false, nil
		}
	}
}

func (s *tripleScan) Close() {
	if s.it != nil {
		s.it.Close()
		s.it = nil
	}
	s.state = scanExhausted
}

// buildPattern resolves the scan's graph/subject/predicate/object
// terms against the row's bindings *as they stand right now* (the
// planner has already ordered patterns so every variable shared with
// an earlier pattern is bound before this scan starts, spec §4.8 "Join
// order"), producing the most-bound seek prefix the B+Tree can use.
func (s *tripleScan) buildPattern() (quadstore.Pattern, error) {
	var p quadstore.Pattern
	if s.graph != nil {
		v, err := s.ctx.resolveTerm(*s.graph)
		if err != nil {
			return p, err
		}
		p.Graph = v
	}
	var err error
	if p.Subject, err = s.ctx.resolveTerm(s.pattern.Subject); err != nil {
		return p, err
	}
	if p.Predicate, err = s.ctx.resolveTerm(s.pattern.Predicate); err != nil {
		return p, err
	}
	if p.Object, err = s.ctx.resolveTerm(s.pattern.Object); err != nil {
		return p, err
	}
	return p, nil
}

// tryBind checks q against every variable position this pattern (and
// its optional GRAPH wrapper) touches, including the same variable
// appearing twice within one triple pattern (e.g. `?x <p> ?x`). Only
// if every position is mutually consistent does it commit the new
// bindings to the row. A partial, uncommitted bind on mismatch would
// corrupt the row for the next candidate, so candidates are validated
// against a local pending map before anything is written.
func (s *tripleScan) tryBind(q quadstore.Quad) bool {
	pending := make(map[string]term.Value, 4)
	check := func(t ast.Term, v term.Value) bool {
		if t.Kind != ast.TermVar {
			return true
		}
		if existing, ok := pending[t.Text]; ok {
			return term.SameTerm(existing, v)
		}
		if bound, ok, err := s.ctx.Row.Get(t.Text); err == nil && ok {
			if !term.SameTerm(bound, v) {
				return false
			}
		}
		pending[t.Text] = v
		return true
	}

	if s.graph != nil && s.graph.Kind == ast.TermVar {
		if !check(*s.graph, q.Graph) {
			return false
		}
	}
	if !check(s.pattern.Subject, q.Subject) {
		return false
	}
	if !check(s.pattern.Predicate, q.Predicate) {
		return false
	}
	if !check(s.pattern.Object, q.Object) {
		return false
	}
	for name, v := range pending {
		s.ctx.Row.Bind(name, v)
	}
	return true
}

// buildTripleScan constructs the scan for a plan.TriplePattern leaf,
// translating its logical-plan shape into the ast.Term triple this
// package's scan machinery works with directly.
func buildTripleScan(ctx *Context, graph *ast.Term, t plan.TriplePattern) *tripleScan {
	g := graph
	if t.Graph != nil {
		g = t.Graph
	}
	return newTripleScan(ctx, g, ast.TriplePattern{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object})
}
