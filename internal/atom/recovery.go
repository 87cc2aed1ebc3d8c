package atom

import (
	"encoding/binary"
	"io"
)

// recover scans atoms.off end-to-end, validating every offset against
// atoms.dat, truncating a torn tail in either file, and rebuilding the
// in-memory hash index by re-hashing every surviving record (spec §4.1
// "Recovery").
func (s *Store) recover() error {
	datBytes, err := io.ReadAll(&offsetReader{f: s.dat})
	if err != nil {
		return &StorageError{Op: "read atoms.dat", Err: err}
	}
	s.data = datBytes

	offBytes, err := io.ReadAll(&offsetReader{f: s.off})
	if err != nil {
		return &StorageError{Op: "read atoms.off", Err: err}
	}

	n := len(offBytes) / 8
	offsets := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		off := binary.BigEndian.Uint64(offBytes[i*8 : i*8+8])
		if off+4 > uint64(len(s.data)) {
			break // torn tail: offset points past what atoms.dat actually has
		}
		recLen := binary.BigEndian.Uint32(s.data[off : off+4])
		end := off + 4 + uint64(recLen)
		if end > uint64(len(s.data)) {
			break // torn record
		}
		offsets = append(offsets, off)
	}

	// A torn tail in atoms.dat past the last valid record is also
	// truncated so future appends start from a clean boundary.
	var validDatLen uint64
	if len(offsets) > 0 {
		last := offsets[len(offsets)-1]
		recLen := binary.BigEndian.Uint32(s.data[last : last+4])
		validDatLen = last + 4 + uint64(recLen)
	}
	if validDatLen < uint64(len(s.data)) {
		s.data = s.data[:validDatLen]
		if err := s.dat.Truncate(int64(validDatLen)); err != nil {
			return &StorageError{Op: "truncate atoms.dat", Err: err}
		}
	}
	if len(offsets) != n {
		if err := s.off.Truncate(int64(len(offsets) * 8)); err != nil {
			return &StorageError{Op: "truncate atoms.off", Err: err}
		}
	}

	s.offsets = offsets
	s.idx = newHashIndex(len(offsets))
	for id, off := range offsets {
		recLen := binary.BigEndian.Uint32(s.data[off : off+4])
		b := s.data[off+4 : off+4+uint64(recLen)]
		s.idx.insert(fnv1a(b), uint64(id))
	}

	return nil
}

// offsetReader reads a file from offset 0 without disturbing any
// other cursor-based usage (os.File.ReadAt based).
type offsetReader struct {
	f   interface{ ReadAt([]byte, int64) (int, error) }
	pos int64
}

func (r *offsetReader) Read(p []byte) (int, error) {
	n, err := r.f.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}
