package parser

import (
	"fmt"

	"github.com/quadcore/quadcore/internal/sparql/token"
)

// ErrorKind classifies a parse failure the way spec §4.6 requires:
// the parser never panics on a well-formed-but-unsupported construct,
// it reports which kind of failure occurred and where.
type ErrorKind int

const (
	UnexpectedToken ErrorKind = iota
	MissingProduction
	UnsupportedFeature
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "unexpected token"
	case MissingProduction:
		return "missing production"
	case UnsupportedFeature:
		return "unsupported feature"
	default:
		return "parse error"
	}
}

// ParseError carries a source span alongside its kind and message, so
// a caller (a CLI, a query log) can point at exactly what failed.
type ParseError struct {
	Kind    ErrorKind
	Pos     token.Pos
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d: %s", e.Kind, e.Pos.Line, e.Pos.Column, e.Message)
}

func newError(kind ErrorKind, pos token.Pos, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
