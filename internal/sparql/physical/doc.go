// Package physical implements the pull-based scan operators spec §4.7
// describes: TriplePatternScan, MultiPatternScan (with backtracking via
// recorded binding-row prefix length), the GRAPH-aware scan variants
// folded into the same scan machinery, Join (including OPTIONAL),
// Union, Minus, Filter, Bind, Values, SubSelect, and Service.
//
// Every operator shares one binding.Row through its Context rather than
// owning a private copy, the same "pooled row" discipline
// internal/binding documents: a join descends by calling its child's
// Advance and ascends by truncating the row back to the prefix length
// recorded before the descent, never by copying.
package physical
