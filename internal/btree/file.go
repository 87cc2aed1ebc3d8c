package btree

import "os"

// fileBackend implements pagecache.Backend over a single fixed-page-size
// index file. Page 0 is the superblock; pages are otherwise addressed
// by byte offset = id * PageSize.
type fileBackend struct {
	f *os.File
}

func openFileBackend(path string) (*fileBackend, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, &StorageError{Op: "open index file", Err: err}
	}
	return &fileBackend{f: f}, nil
}

func (b *fileBackend) ReadPage(id uint64) ([]byte, error) {
	buf := make([]byte, PageSize)
	n, err := b.f.ReadAt(buf, int64(id)*PageSize)
	if err != nil && n == 0 {
		// Unallocated page: treat as a zeroed page, same as a freshly
		// grown file would read.
		return buf, nil
	}
	return buf, nil
}

func (b *fileBackend) WritePage(id uint64, data []byte) error {
	if _, err := b.f.WriteAt(data, int64(id)*PageSize); err != nil {
		return &StorageError{Op: "write page", Err: err}
	}
	return nil
}

func (b *fileBackend) Sync() error {
	if err := b.f.Sync(); err != nil {
		return &StorageError{Op: "fsync index file", Err: err}
	}
	return nil
}

func (b *fileBackend) Close() error { return b.f.Close() }
