package repositories

import (
	"context"
	"io"
)

// BlobStore holds source uploads addressed by file name.
type BlobStore interface {
	Preallocate(name string, size int64) error
	WriteRange(name string, start int64, data []byte) error
	WriteStream(name string, r io.Reader) (int64, error)
	ReadRange(name string, start, end int64) ([]byte, error)
	ReadFile(name string) ([]byte, error)
	Delete(name string) error
	Path(name string) string
}

// AssetStore holds the playable outputs of the pipeline: processed videos
// and thumbnails, addressed by key.
type AssetStore interface {
	// Put takes ownership of the local file at srcPath and publishes it
	// under key.
	Put(ctx context.Context, key, srcPath string) error
	Read(ctx context.Context, key string) ([]byte, error)
	// ReadRange returns bytes [start, end] of the asset (end clamped to the
	// asset size) and the asset's total size.
	ReadRange(ctx context.Context, key string, start, end int64) ([]byte, int64, error)
	Delete(ctx context.Context, key string) error
}
