package wal

import (
	"encoding/binary"
	"hash/crc32"
)

// RecordSize is the fixed WAL record width: magic(4) + kind(4) +
// txId(8) + 6 temporal/identity fields(8 each) + crc(8).
const RecordSize = 4 + 4 + 8 + 8*6 + 8

const recordMagic uint32 = 0x57414C31 // "WAL1"

// Kind distinguishes WAL record payloads.
type Kind uint32

const (
	KindInsert    Kind = 1
	KindTombstone Kind = 2
	KindCheckpoint Kind = 3
)

// Record is one WAL entry: a quad's identity/bitemporal fields tagged
// with the batch it belongs to and the operation kind.
type Record struct {
	Kind      Kind
	TxID      uint64
	Graph     uint64
	Subject   uint64
	Predicate uint64
	Object    uint64
	ValidFrom int64
	ValidTo   int64
}

// Marshal encodes r into a fixed 72-byte buffer, CRC32 over every
// preceding byte.
func (r Record) Marshal() [RecordSize]byte {
	var buf [RecordSize]byte
	binary.BigEndian.PutUint32(buf[0:4], recordMagic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(r.Kind))
	binary.BigEndian.PutUint64(buf[8:16], r.TxID)
	binary.BigEndian.PutUint64(buf[16:24], r.Graph)
	binary.BigEndian.PutUint64(buf[24:32], r.Subject)
	binary.BigEndian.PutUint64(buf[32:40], r.Predicate)
	binary.BigEndian.PutUint64(buf[40:48], r.Object)
	binary.BigEndian.PutUint64(buf[48:56], uint64(r.ValidFrom))
	binary.BigEndian.PutUint64(buf[56:64], uint64(r.ValidTo))
	crc := crc32.ChecksumIEEE(buf[:64])
	binary.BigEndian.PutUint64(buf[64:72], uint64(crc))
	return buf
}

// unmarshalRecord decodes and validates one 72-byte record. A false
// ok return (with no error) means the magic or CRC did not match,
// signaling a torn tail the caller should stop replay at.
func unmarshalRecord(buf []byte) (Record, bool) {
	if len(buf) != RecordSize {
		return Record{}, false
	}
	magic := binary.BigEndian.Uint32(buf[0:4])
	if magic != recordMagic {
		return Record{}, false
	}
	crc := binary.BigEndian.Uint64(buf[64:72])
	if uint64(crc32.ChecksumIEEE(buf[:64])) != crc {
		return Record{}, false
	}
	r := Record{
		Kind:      Kind(binary.BigEndian.Uint32(buf[4:8])),
		TxID:      binary.BigEndian.Uint64(buf[8:16]),
		Graph:     binary.BigEndian.Uint64(buf[16:24]),
		Subject:   binary.BigEndian.Uint64(buf[24:32]),
		Predicate: binary.BigEndian.Uint64(buf[32:40]),
		Object:    binary.BigEndian.Uint64(buf[40:48]),
		ValidFrom: int64(binary.BigEndian.Uint64(buf[48:56])),
		ValidTo:   int64(binary.BigEndian.Uint64(buf[56:64])),
	}
	// The composite key's txTime field is the batch's TxID itself.
	// Spec §4.4 lists 6 embedded 8-byte fields after txId, not 7; see
	// DESIGN.md's WAL txId decision. quadstore encodes the key's
	// txTime as r.TxID when applying this record, so Record carries no
	// separate TxTime field.
	return r, true
}
