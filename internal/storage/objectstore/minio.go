package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"blog_generator/internal/domain"
)

const htmlContentType = "text/html; charset=utf-8"

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// MinioStore uploads rendered posts to an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

func NewMinioStore(ctx context.Context, cfg Config, logger *slog.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
		logger.Info("created bucket", "bucket", cfg.Bucket)
	}

	return &MinioStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

// UploadPost stores post.HTML and returns the object key.
func (s *MinioStore) UploadPost(ctx context.Context, post *domain.Post) (string, error) {
	key := ObjectKey(s.prefix, post)
	data := []byte(post.HTML)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: htmlContentType,
		UserMetadata: map[string]string{
			"post-id": post.ID.String(),
			"topic":   post.Topic,
		},
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Debug("uploaded post", "bucket", s.bucket, "key", key, "bytes", len(data))
	return key, nil
}

func ObjectKey(prefix string, post *domain.Post) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return post.FileName()
	}
	return path.Join(prefix, post.FileName())
}
