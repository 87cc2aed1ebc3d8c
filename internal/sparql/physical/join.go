package physical

// joinOperator is the generic Join physical operator: a nested-loop
// join where, for every row pulled from left, a fresh right subtree is
// built and driven to completion against the row as left just left it
// (spec §4.7 "nested-loop join"). LeftOuter makes it OPTIONAL's
// physical form: a left row with no matching right row is still
// emitted, with the right side's variables left unbound, instead of
// being dropped.
type joinOperator struct {
	ctx        *Context
	left       Operator
	buildRight func() Operator
	leftOuter  bool

	right     Operator
	prefixLen int
	matched   bool
}

func newJoinOperator(ctx *Context, left Operator, buildRight func() Operator, leftOuter bool) *joinOperator {
	return &joinOperator{ctx: ctx, left: left, buildRight: buildRight, leftOuter: leftOuter}
}

func (j *joinOperator) Advance() (bool, error) {
	for {
		if j.right == nil {
			ok, err := j.left.Advance()
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			j.prefixLen = j.ctx.Row.ActiveLen()
			j.right = j.buildRight()
			j.matched = false
		}

		ok, err := j.right.Advance()
		if err != nil {
			return false, err
		}
		if ok {
			j.matched = true
			return true, nil
		}

		j.right.Close()
		j.right = nil
		emitUnmatched := j.leftOuter && !j.matched
		j.ctx.Row.Truncate(j.prefixLen)
		if emitUnmatched {
			return true, nil
		}
		// loop: pull the next left row
	}
}

func (j *joinOperator) Close() {
	if j.right != nil {
		j.right.Close()
		j.right = nil
	}
	j.left.Close()
}
