package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"video-hosting/pkg/constants"
	fe "video-hosting/pkg/errors"
	"video-hosting/pkg/file"
)

// VideoKey is the asset key of a video's processed, playable file.
func VideoKey(videoID string) string {
	return path.Join("videos", videoID+constants.ProcessedExt)
}

// ThumbnailKey is the asset key of a video's thumbnail.
func ThumbnailKey(videoID string) string {
	return path.Join("thumbnails", videoID+constants.ThumbnailExt)
}

type LocalStorage struct {
	BasePath string
}

func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{BasePath: basePath}
}

func (l *LocalStorage) fullPath(key string) string {
	return filepath.Join(l.BasePath, filepath.FromSlash(path.Clean("/"+key)))
}

func (l *LocalStorage) Put(_ context.Context, key, srcPath string) error {
	dst := l.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fe.ErrStorage(fmt.Errorf("create asset dir: %w", err))
	}

	if err := os.Rename(srcPath, dst); err != nil {
		// Different filesystems: fall back to copy + remove.
		if copyErr := file.CopyFile(srcPath, dst); copyErr != nil {
			return fe.ErrStorage(fmt.Errorf("publish %s: %w", key, copyErr))
		}
		_ = os.Remove(srcPath)
	}
	return nil
}

func (l *LocalStorage) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(l.fullPath(key))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, fe.ErrNotFound(fmt.Errorf("asset %s", key))
		}
		return nil, fe.ErrStorage(err)
	}
	return data, nil
}

func (l *LocalStorage) ReadRange(_ context.Context, key string, start, end int64) ([]byte, int64, error) {
	f, err := os.Open(l.fullPath(key))
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, 0, fe.ErrNotFound(fmt.Errorf("asset %s", key))
		}
		return nil, 0, fe.ErrStorage(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, fe.ErrStorage(err)
	}
	size := info.Size()
	start, end, err = clampRange(start, end, size)
	if err != nil {
		return nil, size, err
	}

	buf := make([]byte, end-start+1)
	if _, err := f.ReadAt(buf, start); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, size, fe.ErrStorage(err)
	}
	return buf, size, nil
}

func (l *LocalStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(l.fullPath(key)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return fe.ErrStorage(err)
	}
	return nil
}

func clampRange(start, end, size int64) (int64, int64, error) {
	if start < 0 || start >= size || (end >= 0 && end < start) {
		return 0, 0, fe.ErrInvalidInput(fmt.Errorf("range %d-%d not satisfiable for size %d", start, end, size))
	}
	if end < 0 || end >= size {
		end = size - 1
	}
	return start, end, nil
}
