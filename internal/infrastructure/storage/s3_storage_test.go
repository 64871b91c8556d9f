package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	fe "video-hosting/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects   map[string][]byte
	lastRange string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	out := &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}
	if in.Range != nil {
		f.lastRange = aws.ToString(in.Range)
		out.Body = io.NopCloser(bytes.NewReader(data[2:5]))
		out.ContentRange = aws.String("bytes 2-4/10")
	}
	return out, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	store := &S3Storage{client: fake, bucketName: "bucket"}

	src := filepath.Join(t.TempDir(), "thumb.jpg")
	require.NoError(t, os.WriteFile(src, []byte("0123456789"), 0644))

	key := ThumbnailKey("vid")
	require.NoError(t, store.Put(ctx, key, src))
	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	data, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	part, total, err := store.ReadRange(ctx, key, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, "234", string(part))
	assert.Equal(t, int64(10), total)
	assert.Equal(t, "bytes=2-4", fake.lastRange)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Read(ctx, key)
	assert.True(t, fe.HasCode(err, fe.CodeNotFound))
}

func TestTotalFromContentRange(t *testing.T) {
	assert.Equal(t, int64(1234), totalFromContentRange("bytes 0-99/1234", 5))
	assert.Equal(t, int64(5), totalFromContentRange("", 5))
	assert.Equal(t, int64(5), totalFromContentRange("bytes 0-99/*", 5))
}
