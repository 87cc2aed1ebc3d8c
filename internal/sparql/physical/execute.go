package physical

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/quadcore/quadcore/internal/binding"
	"github.com/quadcore/quadcore/internal/quadstore"
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/eval"
	"github.com/quadcore/quadcore/internal/sparql/plan"
	"github.com/quadcore/quadcore/internal/term"
)

// Config is everything Execute needs beyond the plan itself: the
// store to run against, which temporal query variant every scan in
// the tree uses, and the injected SERVICE/NOW collaborators.
type Config struct {
	Store              *quadstore.Store
	Mode               Mode
	AsOf               int64
	RangeFrom, RangeTo int64
	Now                func() time.Time
	Service            ServiceExecutor
}

// Execute runs an already-planned, already-optimized query (the
// caller is expected to have called plan.Compile then plan.Optimize)
// to completion and applies its solution modifiers: DISTINCT/REDUCED,
// ORDER BY, and LIMIT/OFFSET. These are not physical operators in
// their own right (spec §4.7 lists scans and row-level predicate/
// transform operators only; sorting and truncating the whole result
// set is the one thing a pull-based single-row-at-a-time operator
// tree can't express, so it happens here instead, the boundary the
// spec's own dependency order draws as "physical scans -> executor").
func Execute(cfg Config, q *plan.Query) ([]string, []map[string]term.Value, error) {
	vars := append([]string(nil), q.ProjectedVars...)

	if q.Limit == 0 {
		return vars, nil, nil
	}

	op, schema, row, err := build(cfg, q)
	if err != nil {
		return nil, nil, err
	}
	defer op.Close()

	mat, err := binding.NewProjectingMaterializer(schema, vars)
	if err != nil {
		return nil, nil, err
	}

	var rows []map[string]term.Value
	for {
		ok, err := op.Advance()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		r, err := mat.Materialize(row)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, r)
	}

	if q.Distinct || q.Reduced {
		rows = dedupRows(vars, rows)
	}
	if len(q.OrderBy) > 0 {
		sortRows(rows, q.OrderBy, cfg.Now)
	}
	rows = applyLimitOffset(rows, q.Offset, q.Limit)

	return vars, rows, nil
}

// build constructs the operator tree and its backing schema/row for
// q.Root, wrapping it with a BIND per "(expr AS ?alias)" projection
// item so aliases are available to the materializer like any other
// row variable.
func build(cfg Config, q *plan.Query) (Operator, *binding.Schema, *binding.Row, error) {
	var bodyVars []string
	if q.Root != nil {
		bodyVars = allVars(q.Root)
	}
	vars := dedupVars(append(append([]string(nil), bodyVars...), q.ProjectedVars...))
	schema, err := binding.NewSchema(vars)
	if err != nil {
		return nil, nil, nil, err
	}
	row := binding.NewRow(schema, 64)

	ctx := &Context{
		Store: cfg.Store, Row: row,
		Mode: cfg.Mode, AsOf: cfg.AsOf, RangeFrom: cfg.RangeFrom, RangeTo: cfg.RangeTo,
		Now: cfg.Now, Service: cfg.Service,
	}

	var op Operator
	if q.Root == nil {
		op = &singleEmptyRow{}
	} else {
		op, err = compileNode(ctx, q.Root, nil)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	for alias, expr := range q.ProjectExprs {
		op = &bindOperator{ctx: ctx, inner: op, varName: alias, expr: expr}
	}
	return op, schema, row, nil
}

func dedupRows(vars []string, rows []map[string]term.Value) []map[string]term.Value {
	seen := make(map[string]bool, len(rows))
	out := make([]map[string]term.Value, 0, len(rows))
	for _, r := range rows {
		key := rowKey(vars, r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func rowKey(vars []string, r map[string]term.Value) string {
	var sb []byte
	for _, v := range vars {
		val, ok := r[v]
		if !ok {
			sb = append(sb, 0)
			continue
		}
		sb = append(sb, val.Encode()...)
		sb = append(sb, 0)
	}
	return string(sb)
}

func applyLimitOffset(rows []map[string]term.Value, offset, limit int64) []map[string]term.Value {
	if offset > 0 {
		if offset >= int64(len(rows)) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit >= 0 && limit < int64(len(rows)) {
		rows = rows[:limit]
	}
	return rows
}

// mapEnv adapts a materialized row (map[string]term.Value) to
// eval.Env, the shape ORDER BY needs to evaluate an arbitrary
// expression (not just a bare variable) per output row.
type mapEnv map[string]term.Value

func (m mapEnv) Get(name string) (term.Value, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

var orderCollator = collate.New(language.Und)

func sortRows(rows []map[string]term.Value, orderBy []ast.OrderTerm, now func() time.Time) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ot := range orderBy {
			ctxI := &eval.Context{Env: mapEnv(rows[i]), Now: now}
			ctxJ := &eval.Context{Env: mapEnv(rows[j]), Now: now}
			a := eval.Eval(ctxI, ot.Expr)
			b := eval.Eval(ctxJ, ot.Expr)
			c := compareForOrder(a, b)
			if c == 0 {
				continue
			}
			if ot.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareForOrder orders two values for ORDER BY: string-flavored
// literals compare via a Unicode collator (golang.org/x/text/collate)
// rather than byte-wise, everything else falls back to term.Compare's
// SPARQL value ordering; an error or unbound value sorts before any
// well-typed value, matching SPARQL's "unbound first" ORDER BY
// convention.
func compareForOrder(a, b term.Value) int {
	aBad := a.IsError() || a.IsUnbound()
	bBad := b.IsError() || b.IsUnbound()
	if aBad && bBad {
		return 0
	}
	if aBad {
		return -1
	}
	if bBad {
		return 1
	}
	if isStringLike(a) && isStringLike(b) {
		return orderCollator.CompareString(a.Lexical, b.Lexical)
	}
	if c, ok := term.Compare(a, b); ok {
		return c
	}
	if a.Lexical == b.Lexical {
		return 0
	}
	if a.Lexical < b.Lexical {
		return -1
	}
	return 1
}

func isStringLike(v term.Value) bool {
	return v.Kind == term.KindString || v.Kind == term.KindLangString
}
