// Package atom provides the append-only, content-interned term store.
//
// A term string (an IRI, a blank node label, or a lexical literal) is
// interned once and thereafter referred to by a stable 8-byte atom id.
// Atom 0 is reserved for the default-graph sentinel; atom 1 is reserved
// as a never-bound sentinel (see [DefaultGraphAtom], [NeverBoundAtom]).
//
// Two append-only files back a store directory:
//
//   - atoms.dat: length-prefixed UTF-8 bytes of every interned term.
//   - atoms.off: one 8-byte offset per atom id (id == record index).
//
// The open-addressed hash table, FNV-1a(bytes) -> atom id, lives only
// in memory and is rebuilt by scanning those two files on every Open;
// no atoms.idx file is written or read.
//
// Publication order on intern is bytes, then offset, then hash slot, so
// a reader racing an interner either observes the old slot (and will
// itself intern a transient duplicate candidate, resolved by
// collision-verification on any later reader) or a new slot whose
// backing bytes are already fully written.
package atom
