package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	fe "video-hosting/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoragePutReadDelete(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store := NewLocalStorage(base)

	src := filepath.Join(t.TempDir(), "out.mp4")
	require.NoError(t, os.WriteFile(src, []byte("0123456789"), 0644))

	key := VideoKey("vid")
	require.NoError(t, store.Put(ctx, key, src))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source should be moved")

	data, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	part, total, err := store.ReadRange(ctx, key, 3, 100)
	require.NoError(t, err)
	assert.Equal(t, "3456789", string(part))
	assert.Equal(t, int64(10), total)

	part, _, err = store.ReadRange(ctx, key, 0, -1)
	require.NoError(t, err)
	assert.Len(t, part, 10)

	_, _, err = store.ReadRange(ctx, key, 10, 12)
	assert.True(t, fe.HasCode(err, fe.CodeInvalidInput))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Read(ctx, key)
	assert.True(t, fe.HasCode(err, fe.CodeNotFound))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "videos/abc.mp4", VideoKey("abc"))
	assert.Equal(t, "thumbnails/abc.jpg", ThumbnailKey("abc"))
}

func TestLocalStorageKeyCannotEscapeBase(t *testing.T) {
	store := NewLocalStorage("/srv/media")
	assert.Equal(t, filepath.Join("/srv/media", "etc", "passwd"), store.fullPath("../../etc/passwd"))
}
