package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	fe "video-hosting/pkg/errors"
	"video-hosting/pkg/helper"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API is the subset of *s3.Client the asset store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Storage struct {
	client     s3API
	bucketName string
}

func NewS3Storage(ctx context.Context, bucketName, region string) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &S3Storage{
		client:     s3.NewFromConfig(cfg),
		bucketName: bucketName,
	}, nil
}

// Put uploads the file and removes the local copy.
func (s *S3Storage) Put(ctx context.Context, key, srcPath string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return fe.ErrStorage(err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(helper.GetMimeTypeFromExtension(key)),
	})
	if err != nil {
		return fe.ErrStorage(fmt.Errorf("s3 put %s: %w", key, err))
	}
	_ = os.Remove(srcPath)
	return nil
}

func (s *S3Storage) Read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translateS3Error(key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fe.ErrStorage(err)
	}
	return data, nil
}

func (s *S3Storage) ReadRange(ctx context.Context, key string, start, end int64) ([]byte, int64, error) {
	if start < 0 || (end >= 0 && end < start) {
		return nil, 0, fe.ErrInvalidInput(fmt.Errorf("invalid range %d-%d", start, end))
	}
	rangeHeader := fmt.Sprintf("bytes=%d-", start)
	if end >= 0 {
		rangeHeader = fmt.Sprintf("bytes=%d-%d", start, end)
	}

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		return nil, 0, translateS3Error(key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fe.ErrStorage(err)
	}
	return data, totalFromContentRange(aws.ToString(resp.ContentRange), int64(len(data))), nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fe.ErrStorage(fmt.Errorf("s3 delete %s: %w", key, err))
	}
	return nil
}

func translateS3Error(key string, err error) error {
	var noSuchKey *types.NoSuchKey
	if stderrors.As(err, &noSuchKey) {
		return fe.ErrNotFound(fmt.Errorf("asset %s", key))
	}
	return fe.ErrStorage(fmt.Errorf("s3 get %s: %w", key, err))
}

// totalFromContentRange parses "bytes 0-99/1234".
func totalFromContentRange(header string, fallback int64) int64 {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return fallback
	}
	total, err := strconv.ParseInt(header[idx+1:], 10, 64)
	if err != nil {
		return fallback
	}
	return total
}
