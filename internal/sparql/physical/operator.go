package physical

// Operator is the pull-based physical operator contract spec §4.7
// mandates: "each operator exposes advance(row) -> bool". The row
// isn't a parameter here because every operator in a tree shares the
// same *binding.Row through Context. Advance mutates it in place and
// reports whether it found (or extended) a satisfying binding.
type Operator interface {
	Advance() (bool, error)
	Close()
}

// noRows is an operator that never produces a row. compileNode does
// not build it for any plan node; a pattern referencing a term that was
// never interned is still a tripleScan whose store query finds nothing.
type noRows struct{}

func (noRows) Advance() (bool, error) { return false, nil }
func (noRows) Close()                 {}

// singleEmptyRow yields exactly one result, the empty binding, and
// then is exhausted. It is the operator for a nil Root (an empty group
// graph pattern matches the empty binding once, spec §8 "Empty graph
// pattern" read together with plan.Compile's nil-Where case). The
// BGP{} that plan.lowerGroup produces for an empty group is not built
// as this operator: compileNode turns it into a multiScan with no
// patterns, which yields the empty binding once on its own.
type singleEmptyRow struct {
	done bool
}

func (s *singleEmptyRow) Advance() (bool, error) {
	if s.done {
		return false, nil
	}
	s.done = true
	return true, nil
}

func (s *singleEmptyRow) Close() {}
