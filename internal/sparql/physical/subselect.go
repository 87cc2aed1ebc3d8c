package physical

import (
	"github.com/quadcore/quadcore/internal/sparql/plan"
	"github.com/quadcore/quadcore/internal/term"
)

// subSelectOperator is SubQueryScan (spec §4.7): the nested SELECT
// runs to completion exactly once, on first Advance, and its
// projected rows are cached as a pooled table; every Advance after
// that just walks the table. Pairing that table with an outer pattern
// (SubQueryJoinScan) falls out for free because this operator is built
// as the Right side of an ordinary joinOperator like any other node:
// a subquery is not correlated in SPARQL, so the standard
// shared-variable join against the cached table is the whole story.
type subSelectOperator struct {
	ctx   *Context
	query *plan.Query

	rows  []map[string]term.Value
	idx   int
	built bool
}

func (s *subSelectOperator) Advance() (bool, error) {
	if !s.built {
		_, rows, err := Execute(Config{
			Store: s.ctx.Store, Mode: s.ctx.Mode,
			AsOf: s.ctx.AsOf, RangeFrom: s.ctx.RangeFrom, RangeTo: s.ctx.RangeTo,
			Now: s.ctx.Now, Service: s.ctx.Service,
		}, s.query)
		if err != nil {
			return false, err
		}
		s.rows = rows
		s.built = true
	}
	for s.idx < len(s.rows) {
		row := s.rows[s.idx]
		s.idx++
		if s.tryBind(row) {
			return true, nil
		}
	}
	return false, nil
}

func (s *subSelectOperator) tryBind(row map[string]term.Value) bool {
	pending := make(map[string]term.Value, len(row))
	for name, v := range row {
		if bound, ok, err := s.ctx.Row.Get(name); err == nil && ok {
			if !term.SameTerm(bound, v) {
				return false
			}
			continue
		}
		if _, inSchema := s.ctx.Row.Schema().SlotFor(name); !inSchema {
			continue
		}
		pending[name] = v
	}
	for name, v := range pending {
		s.ctx.Row.Bind(name, v)
	}
	return true
}

func (s *subSelectOperator) Close() {}
