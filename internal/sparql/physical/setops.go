package physical

// unionOperator drains left to exhaustion, truncates the row back to
// what it was before left began, then drains right the same way.
// SPARQL UNION's column-union semantics fall out of the shared-row
// model automatically: a variable left unbound by whichever branch
// runs just isn't present when the row is materialized.
type unionOperator struct {
	ctx         *Context
	buildLeft   func() Operator
	buildRight  func() Operator
	prefixLen   int
	cur         Operator
	phase       int // 0: left, 1: right, 2: done
	startedCur  bool
}

func newUnionOperator(ctx *Context, buildLeft, buildRight func() Operator) *unionOperator {
	return &unionOperator{ctx: ctx, buildLeft: buildLeft, buildRight: buildRight}
}

func (u *unionOperator) Advance() (bool, error) {
	for {
		if u.cur == nil {
			switch u.phase {
			case 0:
				u.prefixLen = u.ctx.Row.ActiveLen()
				u.cur = u.buildLeft()
			case 1:
				u.ctx.Row.Truncate(u.prefixLen)
				u.cur = u.buildRight()
			default:
				return false, nil
			}
		}
		ok, err := u.cur.Advance()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		u.cur.Close()
		u.cur = nil
		u.phase++
		if u.phase > 1 {
			u.ctx.Row.Truncate(u.prefixLen)
			return false, nil
		}
	}
}

func (u *unionOperator) Close() {
	if u.cur != nil {
		u.cur.Close()
		u.cur = nil
	}
}

// minusOperator is SPARQL MINUS: a left row is excluded only if some
// right solution is compatible with it AND the two share at least one
// bound variable. A right pattern with a disjoint variable domain can
// never disqualify a left row, per the SPARQL 1.1 MINUS semantics;
// otherwise an unrelated MINUS clause would silently empty the whole
// result.
type minusOperator struct {
	ctx          *Context
	left         Operator
	buildRight   func() Operator
	rightVars    []string
}

func newMinusOperator(ctx *Context, left Operator, buildRight func() Operator, rightVars []string) *minusOperator {
	return &minusOperator{ctx: ctx, left: left, buildRight: buildRight, rightVars: rightVars}
}

func (m *minusOperator) Advance() (bool, error) {
	for {
		ok, err := m.left.Advance()
		if err != nil || !ok {
			return false, err
		}

		overlap := false
		for _, v := range m.rightVars {
			if m.ctx.Row.IsBound(v) {
				overlap = true
				break
			}
		}
		if !overlap {
			return true, nil
		}

		prefixLen := m.ctx.Row.ActiveLen()
		right := m.buildRight()
		hasMatch, err := right.Advance()
		right.Close()
		m.ctx.Row.Truncate(prefixLen)
		if err != nil {
			return false, err
		}
		if !hasMatch {
			return true, nil
		}
		// excluded: right had a compatible, domain-overlapping solution
	}
}

func (m *minusOperator) Close() { m.left.Close() }
