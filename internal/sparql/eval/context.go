package eval

import (
	"time"

	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/term"
)

// Env resolves a SPARQL variable to its currently bound value.
// *binding.Row satisfies this directly (its Get method has the same
// signature), so the physical package never needs an adapter.
type Env interface {
	Get(varName string) (term.Value, bool, error)
}

// ExistsFunc evaluates a SPARQL EXISTS{...} group pattern against the
// context's current row and reports whether it has at least one
// solution. It is supplied by the physical package (the only package
// that knows how to compile and run a group pattern), so this package
// never depends on physical.
type ExistsFunc func(group *ast.GroupGraphPattern) (bool, error)

// Context bundles everything Eval needs beyond the expression tree
// itself: the row to read variables from, a clock for NOW(), and the
// EXISTS/NOT EXISTS evaluator.
type Context struct {
	Env    Env
	Now    func() time.Time
	Exists ExistsFunc
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
