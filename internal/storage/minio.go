package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ImageStore keeps product images and avatars in a single bucket.
type ImageStore struct {
	client *minio.Client
	bucket string
	base   string
	logger zerolog.Logger
}

func NewImageStore(ctx context.Context, cfg MinioConfig, logger zerolog.Logger) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		logger.Warn().Err(err).Str("bucket", cfg.Bucket).Msg("Failed to check bucket existence")
	} else if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			logger.Warn().Err(err).Str("bucket", cfg.Bucket).Msg("Failed to create bucket")
		} else {
			logger.Info().Str("bucket", cfg.Bucket).Msg("Created bucket")
		}
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	return &ImageStore{
		client: client,
		bucket: cfg.Bucket,
		base:   fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket),
		logger: logger,
	}, nil
}

// Upload stores the object under prefix/<uuid><ext> and returns its URL.
func (s *ImageStore) Upload(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType string) (string, error) {
	objectName := fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.NewString(), strings.ToLower(path.Ext(filename)))

	info, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to storage: %w", err)
	}

	s.logger.Info().
		Str("object", objectName).
		Str("size", humanize.Bytes(uint64(info.Size))).
		Msg("Image uploaded")

	return s.base + "/" + objectName, nil
}
