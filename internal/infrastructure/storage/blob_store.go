package storage

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	fe "video-hosting/pkg/errors"
)

// LocalBlobStore keeps source uploads in a single directory. Every call opens
// its own file handle, so concurrent writes to disjoint ranges of one file
// never share state.
type LocalBlobStore struct {
	dir string
}

func NewLocalBlobStore(dir string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob dir %s: %w", dir, err)
	}
	return &LocalBlobStore{dir: dir}, nil
}

func (b *LocalBlobStore) Path(name string) string {
	return filepath.Join(b.dir, filepath.Base(name))
}

// Preallocate creates a zero-filled file of exactly size bytes.
func (b *LocalBlobStore) Preallocate(name string, size int64) error {
	if size < 0 {
		return fe.ErrInvalidSize(fmt.Errorf("negative size %d", size))
	}
	f, err := os.OpenFile(b.Path(name), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			return fe.ErrAlreadyExists(fmt.Errorf("source file %s exists", name))
		}
		return fe.ErrStorage(err)
	}
	defer f.Close()

	if err := f.Truncate(size); err != nil {
		_ = os.Remove(f.Name())
		return fe.ErrStorage(fmt.Errorf("preallocate %s: %w", name, err))
	}
	return nil
}

// WriteRange overwrites [start, start+len(data)) of an existing file.
func (b *LocalBlobStore) WriteRange(name string, start int64, data []byte) error {
	if start < 0 {
		return fe.ErrStorage(fmt.Errorf("negative offset %d", start))
	}
	if len(data) == 0 {
		return nil
	}

	f, err := os.OpenFile(b.Path(name), os.O_RDWR, 0)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return fe.ErrNotFound(fmt.Errorf("source file %s: %w", name, err))
		}
		return fe.ErrStorage(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fe.ErrStorage(err)
	}
	if end := start + int64(len(data)); end > info.Size() {
		return fe.ErrStorage(fmt.Errorf("range [%d,%d) exceeds size %d of %s", start, end, info.Size(), name))
	}

	if err := writeAt(f, start, data); err != nil {
		return fe.ErrStorage(fmt.Errorf("write %s at %d: %w", name, start, err))
	}
	return nil
}

// WriteStream creates name from r, replacing nothing: the file must not exist.
func (b *LocalBlobStore) WriteStream(name string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(b.Path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			return 0, fe.ErrAlreadyExists(fmt.Errorf("source file %s exists", name))
		}
		return 0, fe.ErrStorage(err)
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(f.Name())
		if copyErr == nil {
			copyErr = closeErr
		}
		return n, fe.ErrStorage(fmt.Errorf("write %s: %w", name, copyErr))
	}
	return n, nil
}

// ReadRange returns end-start+1 bytes starting at start.
func (b *LocalBlobStore) ReadRange(name string, start, end int64) ([]byte, error) {
	if start < 0 || end < start {
		return nil, fe.ErrInvalidInput(fmt.Errorf("invalid range %d-%d", start, end))
	}
	f, err := os.Open(b.Path(name))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fe.ErrNotFound(err)
		}
		return nil, fe.ErrStorage(err)
	}
	defer f.Close()

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, fe.ErrStorage(err)
	}
	buf := make([]byte, end-start+1)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fe.ErrStorage(fmt.Errorf("read %s [%d,%d]: %w", name, start, end, err))
	}
	return buf, nil
}

func (b *LocalBlobStore) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(name))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fe.ErrNotFound(err)
		}
		return nil, fe.ErrStorage(err)
	}
	return data, nil
}

// Delete is a no-op when the file is already gone.
func (b *LocalBlobStore) Delete(name string) error {
	if err := os.Remove(b.Path(name)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return fe.ErrStorage(err)
	}
	return nil
}
