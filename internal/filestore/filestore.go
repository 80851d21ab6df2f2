// Package filestore keeps uploaded proposal documents. The store package
// only tracks file metadata; the bytes live here, either in an S3
// compatible bucket or inline as data URIs when no bucket is configured.
package filestore

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ContentStore reads and writes document bytes addressed by reference.
// Put returns the reference to record in the file's metadata.
type ContentStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Get(ctx context.Context, reference string) ([]byte, error)
	Delete(ctx context.Context, reference string) error
}

// BucketConfig holds the connection settings for an object storage bucket.
type BucketConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// BucketStore stores document bytes in an S3 compatible bucket.
type BucketStore struct {
	client *minio.Client
	bucket string
}

// NewBucketStore connects to the bucket and creates it if missing.
func NewBucketStore(ctx context.Context, cfg BucketConfig) (*BucketStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &BucketStore{client: client, bucket: cfg.Bucket}, nil
}

const bucketPrefix = "s3://"

func (b *BucketStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	_, err := b.client.PutObject(ctx, b.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("storing object %q: %w", name, err)
	}
	return bucketPrefix + b.bucket + "/" + name, nil
}

func (b *BucketStore) Get(ctx context.Context, reference string) ([]byte, error) {
	name, ok := b.objectName(reference)
	if !ok {
		return nil, fmt.Errorf("reference %q does not belong to bucket %q", reference, b.bucket)
	}
	obj, err := b.client.GetObject(ctx, b.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetching object %q: %w", name, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("reading object %q: %w", name, err)
	}
	return data, nil
}

func (b *BucketStore) Delete(ctx context.Context, reference string) error {
	name, ok := b.objectName(reference)
	if !ok {
		return fmt.Errorf("reference %q does not belong to bucket %q", reference, b.bucket)
	}
	if err := b.client.RemoveObject(ctx, b.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing object %q: %w", name, err)
	}
	return nil
}

func (b *BucketStore) objectName(reference string) (string, bool) {
	name, ok := strings.CutPrefix(reference, bucketPrefix+b.bucket+"/")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// InlineStore encodes document bytes directly into the reference as a
// data URI. It needs no external service, at the cost of carrying file
// contents inside the persisted collection.
type InlineStore struct{}

func NewInlineStore() *InlineStore { return &InlineStore{} }

func (InlineStore) Put(_ context.Context, _, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (InlineStore) Get(_ context.Context, reference string) ([]byte, error) {
	rest, ok := strings.CutPrefix(reference, "data:")
	if !ok {
		return nil, fmt.Errorf("reference %q is not a data URI", reference)
	}
	_, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return nil, fmt.Errorf("reference %q is not base64 encoded", reference)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URI: %w", err)
	}
	return data, nil
}

func (InlineStore) Delete(context.Context, string) error { return nil }
