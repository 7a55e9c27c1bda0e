package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

// ObjectStore implements ports.ObjectStorage on top of a MinIO/S3 client.
type ObjectStore struct {
	client *minio.Client
}

func NewObjectStore(client *minio.Client) *ObjectStore {
	return &ObjectStore{client: client}
}

func (s *ObjectStore) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, objectName, err)
	}
	base := s.client.EndpointURL()
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base.String(), "/"), bucket, objectName), nil
}

func (s *ObjectStore) PresignGet(ctx context.Context, bucket, objectName string, expiry time.Duration) (string, error) {
	signed, err := s.client.PresignedGetObject(ctx, bucket, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %s/%s: %w", bucket, objectName, err)
	}
	return signed.String(), nil
}

func (s *ObjectStore) PresignPut(ctx context.Context, bucket, objectName string, expiry time.Duration) (string, error) {
	signed, err := s.client.PresignedPutObject(ctx, bucket, objectName, expiry)
	if err != nil {
		return "", fmt.Errorf("presign put %s/%s: %w", bucket, objectName, err)
	}
	return signed.String(), nil
}
