package btree

import "encoding/binary"

// superblockMagic identifies a gspo.tdb index file (spec §6).
const superblockMagic uint64 = 0x51554144_47535000 // "QUADGSP\0"

const formatVersion uint32 = 1

// superblock is page 0 of the index file, written only at checkpoint
// (spec §6 "Persisted state layout invariants").
type superblock struct {
	Magic                uint64
	Version              uint32
	RootPageID           uint64
	FreeListHead         uint64
	NextUnusedPage       uint64
	LastCheckpointOffset uint64
}

func (s *superblock) marshal() []byte {
	buf := make([]byte, PageSize)
	binary.BigEndian.PutUint64(buf[0:8], s.Magic)
	binary.BigEndian.PutUint32(buf[8:12], s.Version)
	binary.BigEndian.PutUint64(buf[12:20], s.RootPageID)
	binary.BigEndian.PutUint64(buf[20:28], s.FreeListHead)
	binary.BigEndian.PutUint64(buf[28:36], s.NextUnusedPage)
	binary.BigEndian.PutUint64(buf[36:44], s.LastCheckpointOffset)
	return buf
}

func unmarshalSuperblock(buf []byte) (*superblock, error) {
	s := &superblock{
		Magic:                binary.BigEndian.Uint64(buf[0:8]),
		Version:              binary.BigEndian.Uint32(buf[8:12]),
		RootPageID:           binary.BigEndian.Uint64(buf[12:20]),
		FreeListHead:         binary.BigEndian.Uint64(buf[20:28]),
		NextUnusedPage:       binary.BigEndian.Uint64(buf[28:36]),
		LastCheckpointOffset: binary.BigEndian.Uint64(buf[36:44]),
	}
	if s.Magic != superblockMagic {
		return nil, &CorruptionError{Reason: "bad superblock magic"}
	}
	return s, nil
}
