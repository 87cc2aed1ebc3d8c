// Package wal implements the write-ahead log described in spec §4.4:
// fixed 72-byte records, in-memory batch accumulation, a single fsync
// per committed batch, checkpoint truncation, and CRC-verified redo
// replay on open. See record.go for the on-disk layout and DESIGN.md
// for the txId/txTime field-count decision.
package wal
