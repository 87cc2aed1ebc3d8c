// Package eval implements SPARQL expression evaluation (spec §4.9):
// the tagged-value arithmetic/comparison/logical operators, the
// mandatory built-in function set, three-valued logic, and the
// error-value propagation rules FILTER/COALESCE/arithmetic rely on.
//
// Evaluation never returns a Go error for an ill-typed expression: it
// returns term.KindError, the SPARQL-native way of carrying a type
// error through the rest of an expression tree (spec §4.9 "Error
// propagation"). Eval has no Go error return at all: even a condition
// outside SPARQL's own error model, such as a variable absent from the
// row's schema entirely (a planner bug, not a query-time condition),
// comes back as a KindError value whose message carries the Env error.
package eval
