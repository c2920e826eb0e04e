package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"time"

	"github.com/mdshare/mdshare/backend/go-services/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotConfigured is returned when no MinIO endpoint is set.
var ErrNotConfigured = errors.New("minio config missing")

// Object is one exported file and the document it came from.
type Object struct {
	Key         string
	ContentType string
	Body        io.Reader
	Size        int64
	DocumentID  string
	OwnerID     string
}

// MinIOStorage writes document exports to a single bucket.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage connects to MinIO and makes sure the export bucket exists.
func NewMinIOStorage(ctx context.Context, cfg config.MinIOConfig) (*MinIOStorage, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOStorage{client: mc, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		exists, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exists {
			return nil, fmt.Errorf("minio bucket %s: %w", s.bucket, err)
		}
	}
	return s, nil
}

// Bucket returns the bucket exports are written to.
func (s *MinIOStorage) Bucket() string { return s.bucket }

// Put stores obj, tagging it with the source document and owner.
func (s *MinIOStorage) Put(ctx context.Context, obj Object) error {
	opts := minio.PutObjectOptions{
		ContentType: obj.ContentType,
		UserMetadata: map[string]string{
			"document-id": obj.DocumentID,
			"owner-id":    obj.OwnerID,
		},
	}
	if _, err := s.client.PutObject(ctx, s.bucket, obj.Key, obj.Body, obj.Size, opts); err != nil {
		return fmt.Errorf("minio put %s: %w", obj.Key, err)
	}
	return nil
}

// PresignDownload returns a GET URL valid for expires that downloads key as
// filename.
func (s *MinIOStorage) PresignDownload(ctx context.Context, key, filename string, expires time.Duration) (string, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, params)
	if err != nil {
		return "", fmt.Errorf("minio presign %s: %w", key, err)
	}
	return u.String(), nil
}
