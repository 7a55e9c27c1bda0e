package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bitshare/bitshare-api/internal/media"
	"github.com/bitshare/bitshare-api/internal/repository/ports"
)

var ErrObjectKeyRequired = errors.New("object key is required")

// StorageService issues pre-signed URLs for profile media and handles the
// direct upload path.
type StorageService struct {
	users        ports.UserRepository
	storage      ports.ObjectStorage
	processor    media.Processor
	bucket       string
	presignTTL   time.Duration
	maxDimension int
}

func NewStorageService(users ports.UserRepository, storage ports.ObjectStorage, processor media.Processor, bucket string, presignTTL time.Duration, maxDimension int) *StorageService {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &StorageService{
		users:        users,
		storage:      storage,
		processor:    processor,
		bucket:       bucket,
		presignTTL:   presignTTL,
		maxDimension: maxDimension,
	}
}

// PresignUpload returns a PUT URL for a fresh timestamp-keyed object.
func (s *StorageService) PresignUpload(ctx context.Context) (signedURL, key string, err error) {
	key = strconv.FormatInt(time.Now().UnixMilli(), 10)
	signedURL, err = s.storage.PresignPut(ctx, s.bucket, key, s.presignTTL)
	if err != nil {
		return "", "", fmt.Errorf("presign upload: %w", err)
	}
	return signedURL, key, nil
}

func (s *StorageService) PresignDownload(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrObjectKeyRequired
	}
	signedURL, err := s.storage.PresignGet(ctx, s.bucket, key, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return signedURL, nil
}

// UploadProfilePic downscales the image if needed, stores it, and records the
// object key on the user. Returns the stored key.
func (s *StorageService) UploadProfilePic(ctx context.Context, userID uuid.UUID, upload media.Upload) (string, error) {
	reader, size, contentType, err := s.prepare(ctx, upload)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s-%d", userID, time.Now().UnixMilli())
	if _, err := s.storage.Upload(ctx, s.bucket, key, contentType, reader, size); err != nil {
		return "", fmt.Errorf("upload profile pic: %w", err)
	}
	if err := s.users.UpdateProfilePic(ctx, userID, key); err != nil {
		return "", fmt.Errorf("record profile pic: %w", err)
	}
	return key, nil
}

func (s *StorageService) prepare(ctx context.Context, upload media.Upload) (io.Reader, int64, string, error) {
	if s.processor == nil {
		return upload.Reader, upload.Size, upload.ContentType, nil
	}
	result, err := s.processor.Process(ctx, upload, s.maxDimension)
	if err != nil {
		return nil, 0, "", err
	}
	return bytes.NewReader(result.Bytes), int64(len(result.Bytes)), result.ContentType, nil
}
