package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/google/uuid"

	"blog_generator/internal/domain"
)

type ContentSource interface {
	ID() string
	Name() string
	GenerateContent(ctx context.Context, topic string) (*domain.BlogContent, error)
}

type ImageSource interface {
	ID() string
	Name() string
	SearchImages(ctx context.Context, query string) ([]domain.Image, error)
}

type Renderer interface {
	Render(content *domain.BlogContent, slug string) (string, error)
	CanonicalURL(slug string) string
}

type PostWriter interface {
	Write(ctx context.Context, post *domain.Post) (string, error)
}

type PostStore interface {
	Upsert(ctx context.Context, post *domain.Post) (uuid.UUID, bool, error)
	SetObjectKey(ctx context.Context, id uuid.UUID, key string) error
}

type TagStore interface {
	UpsertBatch(ctx context.Context, labels []string) ([]int64, error)
	LinkToPost(ctx context.Context, postID uuid.UUID, tagIDs []int64) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Uploader interface {
	UploadPost(ctx context.Context, post *domain.Post) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, post *domain.Post, isNew bool) error
	Close() error
}
