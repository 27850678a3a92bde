package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"blog_generator/internal/domain"
	"blog_generator/internal/render"
)

type GeneratorService struct {
	content   ContentSource
	images    ImageSource
	renderer  Renderer
	writer    PostWriter
	posts     PostStore
	tags      TagStore
	txManager TransactionManager
	uploader  Uploader
	publisher Publisher
	logger    *slog.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// Option enables an optional sink on the GeneratorService.
type Option func(*GeneratorService)

// WithArchive stores every generated post and its tags in one transaction.
func WithArchive(posts PostStore, tags TagStore, txManager TransactionManager) Option {
	return func(s *GeneratorService) {
		s.posts = posts
		s.tags = tags
		s.txManager = txManager
	}
}

// WithUploader copies the rendered HTML to object storage.
func WithUploader(uploader Uploader) Option {
	return func(s *GeneratorService) {
		s.uploader = uploader
	}
}

// WithPublisher announces every generated post.
func WithPublisher(publisher Publisher) Option {
	return func(s *GeneratorService) {
		s.publisher = publisher
	}
}

func NewGeneratorService(
	content ContentSource,
	images ImageSource,
	renderer Renderer,
	writer PostWriter,
	logger *slog.Logger,
	opts ...Option,
) *GeneratorService {
	s := &GeneratorService{
		content:  content,
		images:   images,
		renderer: renderer,
		writer:   writer,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate runs the pipeline for one topic: content, images, merge, render,
// write. Any failure up to and including the write aborts the run. The
// optional sinks run afterwards; their failures are logged and counted.
func (s *GeneratorService) Generate(ctx context.Context, topic string) (*domain.GenerationResult, error) {
	startTime := time.Now()

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, domain.ErrEmptyTopic
	}

	slug := domain.Slug(topic)
	if err := domain.ValidateSlug(slug); err != nil {
		return nil, err
	}
	logger := s.logger.With("slug", slug)

	logger.Info("starting generation",
		"topic", topic,
		"content_source", s.content.ID(),
		"content_source_name", s.content.Name(),
		"image_source", s.images.ID(),
		"image_source_name", s.images.Name(),
	)

	content, err := s.content.GenerateContent(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	logger.Info("generated content",
		"title", content.Title,
		"sections", len(content.Sections),
	)

	images, err := s.images.SearchImages(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("search images: %w", err)
	}

	if len(images) == 0 {
		logger.Warn("no images found, keeping generated image urls")
	} else {
		logger.Info("fetched images", "count", len(images))
	}

	render.AssignImages(content, images)

	html, err := s.renderer.Render(content, slug)
	if err != nil {
		return nil, fmt.Errorf("render post: %w", err)
	}

	post := &domain.Post{
		ID:          s.newID(),
		Topic:       topic,
		Slug:        slug,
		Content:     *content,
		HTML:        html,
		URL:         s.renderer.CanonicalURL(slug),
		GeneratedAt: s.now().UTC(),
	}

	path, err := s.writer.Write(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("write post: %w", err)
	}
	post.FilePath = path

	result := &domain.GenerationResult{
		PostID: post.ID,
		Slug:   slug,
		Path:   path,
		IsNew:  true,
	}

	if s.posts != nil {
		id, isNew, err := s.archive(ctx, post)
		if err != nil {
			result.Errors++
			logger.Error("failed to archive post", "post_id", post.ID, "error", err)
		} else {
			post.ID = id
			result.PostID = id
			result.IsNew = isNew
			result.Archived = true
		}
	}

	if s.uploader != nil {
		s.upload(ctx, logger, post, result)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, post, result.IsNew); err != nil {
			result.Errors++
			logger.Error("failed to publish post", "post_id", post.ID, "error", err)
		} else {
			result.Published = true
		}
	}

	result.Duration = time.Since(startTime)

	logger.Info("generation completed",
		"post_id", result.PostID,
		"path", result.Path,
		"archived", result.Archived,
		"uploaded", result.Uploaded,
		"published", result.Published,
		"errors", result.Errors,
		"duration", result.Duration,
	)

	return result, nil
}

// archive stores the post and its tags in one transaction and returns the
// stored id. The id only counts once the transaction has committed.
func (s *GeneratorService) archive(ctx context.Context, post *domain.Post) (uuid.UUID, bool, error) {
	var (
		id    uuid.UUID
		isNew bool
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		id, isNew, err = s.posts.Upsert(txCtx, post)
		if err != nil {
			return fmt.Errorf("upsert post: %w", err)
		}

		tagIDs, err := s.tags.UpsertBatch(txCtx, post.Content.Tags)
		if err != nil {
			return fmt.Errorf("upsert tags: %w", err)
		}

		if err := s.tags.LinkToPost(txCtx, id, tagIDs); err != nil {
			return fmt.Errorf("link tags: %w", err)
		}

		return nil
	})
	if err != nil {
		return uuid.Nil, false, err
	}

	return id, isNew, nil
}

// upload copies the HTML to object storage and, for an archived post,
// records the object key on the stored row.
func (s *GeneratorService) upload(ctx context.Context, logger *slog.Logger, post *domain.Post, result *domain.GenerationResult) {
	key, err := s.uploader.UploadPost(ctx, post)
	if err != nil {
		result.Errors++
		logger.Error("failed to upload post", "post_id", post.ID, "error", err)
		return
	}

	post.ObjectKey = key
	result.ObjectKey = key
	result.Uploaded = true

	if !result.Archived {
		return
	}
	if err := s.posts.SetObjectKey(ctx, post.ID, key); err != nil {
		result.Errors++
		logger.Error("failed to record object key", "post_id", post.ID, "key", key, "error", err)
	}
}
