package physical

import (
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/eval"
	"github.com/quadcore/quadcore/internal/term"
)

// filterOperator re-evaluates expr per row pulled from inner, passing
// through only rows whose effective boolean value is true (spec §4.9
// "error in a filter context excludes the row" falls out of
// EffectiveBooleanValue's IsError already being false-like here).
type filterOperator struct {
	ctx   *Context
	inner Operator
	expr  ast.Expr
}

func (f *filterOperator) Advance() (bool, error) {
	for {
		ok, err := f.inner.Advance()
		if err != nil || !ok {
			return false, err
		}
		v := eval.Eval(f.ctx.evalContext(), f.expr)
		ebv := term.EffectiveBooleanValue(v)
		if !ebv.IsError() && ebv.BoolVal {
			return true, nil
		}
	}
}

func (f *filterOperator) Close() { f.inner.Close() }

// bindOperator evaluates expr per row pulled from inner and binds the
// result to varName; an ill-typed expr simply leaves varName unbound
// for that row rather than excluding it (BIND, unlike FILTER, never
// drops rows).
type bindOperator struct {
	ctx     *Context
	inner   Operator
	varName string
	expr    ast.Expr
}

func (b *bindOperator) Advance() (bool, error) {
	ok, err := b.inner.Advance()
	if err != nil || !ok {
		return false, err
	}
	v := eval.Eval(b.ctx.evalContext(), b.expr)
	if !v.IsError() {
		b.ctx.Row.Bind(b.varName, v)
	}
	return true, nil
}

func (b *bindOperator) Close() { b.inner.Close() }

// valuesOperator realizes VALUES (spec §4.7's row-level "Values"
// operator): with no Inner it simply enumerates its inline table; with
// an Inner it joins that table against Inner's rows, variable-name-
// compatible, the same way a triple pattern self-join is checked.
type valuesOperator struct {
	ctx     *Context
	vars    []string
	rows    [][]ast.Term
	unbound [][]bool
	inner   Operator

	idx          int
	prefixLen    int
	innerStarted bool
}

func (v *valuesOperator) Advance() (bool, error) {
	for {
		if v.inner != nil && v.idx >= len(v.rows) {
			ok, err := v.inner.Advance()
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			v.prefixLen = v.ctx.Row.ActiveLen()
			v.idx = 0
		}
		for v.idx < len(v.rows) {
			row := v.rows[v.idx]
			var unb []bool
			if v.idx < len(v.unbound) {
				unb = v.unbound[v.idx]
			}
			v.idx++
			if v.inner != nil {
				v.ctx.Row.Truncate(v.prefixLen)
			}
			if v.tryBindRow(row, unb) {
				return true, nil
			}
		}
		if v.inner == nil {
			return false, nil
		}
		// this inner row's table candidates are exhausted; pull the next inner row
	}
}

func (v *valuesOperator) tryBindRow(row []ast.Term, unb []bool) bool {
	pending := make(map[string]term.Value, len(v.vars))
	for i, varName := range v.vars {
		if i < len(unb) && unb[i] {
			continue // UNDEF: no constraint, no binding
		}
		if i >= len(row) {
			continue
		}
		val, err := v.ctx.resolveTerm(row[i])
		if err != nil || val == nil {
			continue
		}
		if bound, ok, err := v.ctx.Row.Get(varName); err == nil && ok {
			if !term.SameTerm(bound, *val) {
				return false
			}
			continue
		}
		pending[varName] = *val
	}
	for name, val := range pending {
		v.ctx.Row.Bind(name, val)
	}
	return true
}

func (v *valuesOperator) Close() {
	if v.inner != nil {
		v.inner.Close()
	}
}
