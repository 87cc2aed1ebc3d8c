package btree

import "fmt"

// CorruptionError indicates a bad page magic, bad header, or a CRC/format
// mismatch discovered while reading the index file.
type CorruptionError struct {
	Reason string
}

func (e *CorruptionError) Error() string { return "btree: corrupt index: " + e.Reason }

// StorageError wraps an I/O failure from the backing index file.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("btree: storage error during %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// OutOfSpaceError is returned when a split cannot proceed because the
// backing file could not grow (spec §4.3 "Out-of-disk during split").
type OutOfSpaceError struct {
	Err error
}

func (e *OutOfSpaceError) Error() string { return fmt.Sprintf("btree: out of disk space: %v", e.Err) }
func (e *OutOfSpaceError) Unwrap() error { return e.Err }
