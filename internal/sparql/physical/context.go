package physical

import (
	"time"

	"github.com/quadcore/quadcore/internal/binding"
	"github.com/quadcore/quadcore/internal/quadstore"
	"github.com/quadcore/quadcore/internal/sparql/ast"
	"github.com/quadcore/quadcore/internal/sparql/eval"
	"github.com/quadcore/quadcore/internal/term"
)

// Mode selects which quadstore query variant TriplePatternScan uses.
// A single Context's Mode applies to every scan in the tree it builds.
// SPARQL itself has no per-pattern temporal syntax (spec §4.9 doesn't
// extend FILTER with one), so the temporal dimension is a whole-query
// setting an embedding caller chooses (e.g. "run this query AS OF T").
type Mode int

const (
	ModeCurrent Mode = iota
	ModeAsOf
	ModeRange
	ModeHistory
)

// ServiceExecutor is the injected collaborator ServiceScan delegates
// to (spec §6 "Wire format for federated SERVICE"). The core never
// embeds an HTTP client.
type ServiceExecutor interface {
	Select(endpointURI, queryText string) (vars []string, rows []map[string]term.Value, err error)
	Ask(endpointURI, queryText string) (bool, error)
}

// Context bundles everything an operator tree needs beyond the plan
// itself: the shared row every operator binds into, the store to scan
// against, the temporal mode, and the injected collaborators (SERVICE,
// the clock NOW() reads).
type Context struct {
	Store *quadstore.Store
	Row   *binding.Row

	Mode               Mode
	AsOf               int64
	RangeFrom, RangeTo int64

	Now     func() time.Time
	Service ServiceExecutor
}

func (c *Context) query(p quadstore.Pattern) (*quadstore.Iterator, error) {
	switch c.Mode {
	case ModeAsOf:
		return c.Store.QueryAsOf(p, c.AsOf)
	case ModeRange:
		return c.Store.QueryRange(p, c.RangeFrom, c.RangeTo)
	case ModeHistory:
		return c.Store.QueryHistory(p)
	default:
		return c.Store.QueryCurrent(p)
	}
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// evalContext adapts Context into the eval package's Context, with an
// EXISTS evaluator that builds a correlated sub-tree over the same
// store (exists.go).
func (c *Context) evalContext() *eval.Context {
	return &eval.Context{
		Env:    c.Row,
		Now:    c.now,
		Exists: c.existsFunc(),
	}
}

func (c *Context) existsFunc() eval.ExistsFunc {
	return func(group *ast.GroupGraphPattern) (bool, error) {
		return c.evalExists(group)
	}
}

// resolveTerm reads t's value given the row's current bindings: a
// bound variable or a literal/IRI/blank term resolves to a constant;
// an unbound variable resolves to nil (wildcard).
func (c *Context) resolveTerm(t ast.Term) (*term.Value, error) {
	switch t.Kind {
	case ast.TermVar:
		v, ok, err := c.Row.Get(t.Text)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return &v, nil
	case ast.TermIRI:
		v := term.IRI(t.Text)
		return &v, nil
	case ast.TermBlank:
		v := term.Blank(t.Text)
		return &v, nil
	case ast.TermLiteral:
		v, err := term.FromLexicalForm(t.Text, t.Lang, t.Datatype)
		if err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, nil
	}
}
