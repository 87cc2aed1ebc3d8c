package physical

import "github.com/quadcore/quadcore/internal/sparql/ast"

// multiScan is MultiPatternScan: a nested-loop join over 2..N triple
// patterns, in the planner's chosen order (spec §4.7/§4.8). It is an
// iterative state machine rather than recursive calls, so that
// resuming the deepest level on a later Advance doesn't need to replay
// every shallower level: lvl tracks which pattern is currently being
// extended, prefixLen[lvl] records the row's ActiveLen before that
// pattern's scan was opened, and scans[lvl] is nil exactly when that
// level needs a fresh scan opened against the row as it now stands.
type multiScan struct {
	ctx      *Context
	graph    *ast.Term
	patterns []ast.TriplePattern

	scans     []*tripleScan
	prefixLen []int
	lvl       int
	started   bool
}

func newMultiScan(ctx *Context, graph *ast.Term, patterns []ast.TriplePattern) *multiScan {
	return &multiScan{
		ctx:       ctx,
		graph:     graph,
		patterns:  patterns,
		scans:     make([]*tripleScan, len(patterns)),
		prefixLen: make([]int, len(patterns)),
	}
}

func (m *multiScan) Advance() (bool, error) {
	if len(m.patterns) == 0 {
		// An empty BGP (plan.BGP{}) matches the empty binding once.
		if m.started {
			return false, nil
		}
		m.started = true
		return true, nil
	}
	if !m.started {
		m.lvl = 0
		m.started = true
	}

	for m.lvl >= 0 {
		if m.scans[m.lvl] == nil {
			m.prefixLen[m.lvl] = m.ctx.Row.ActiveLen()
			m.scans[m.lvl] = newTripleScan(m.ctx, m.graph, m.patterns[m.lvl])
		}
		ok, err := m.scans[m.lvl].Advance()
		if err != nil {
			return false, err
		}
		if ok {
			if m.lvl == len(m.patterns)-1 {
				return true, nil
			}
			m.lvl++
			continue
		}
		// This level is exhausted for the current bindings of every
		// shallower level: close it, truncate the row back to what it
		// was before this level opened, and retry the level above.
		m.scans[m.lvl].Close()
		m.scans[m.lvl] = nil
		m.ctx.Row.Truncate(m.prefixLen[m.lvl])
		m.lvl--
	}
	return false, nil
}

func (m *multiScan) Close() {
	for i, s := range m.scans {
		if s != nil {
			s.Close()
			m.scans[i] = nil
		}
	}
}
