package main

import (
	"github.com/quadcore/quadcore/internal/quadstore"
	"github.com/quadcore/quadcore/internal/term"
)

// parseTermArg decodes one command-line term argument using the same
// grammar the atom store persists (spec §3: <iri>, _:label, quoted
// literal with optional @lang or ^^<datatype>). "default" is a
// convenience alias for quadstore.DefaultGraph, since graph terms are
// the one position a user routinely wants to leave implicit.
func parseTermArg(s string) (term.Value, error) {
	if s == "default" {
		return quadstore.DefaultGraph, nil
	}
	return term.ParseTerm([]byte(s))
}

// formatValue renders a term.Value back to the lexical grammar
// parseTermArg accepts, for printing query results and quad dumps.
func formatValue(v term.Value) string {
	if v.IsUnbound() {
		return ""
	}
	if v.IsError() {
		return "#error: " + v.ErrMsg
	}
	return string(v.Encode())
}
