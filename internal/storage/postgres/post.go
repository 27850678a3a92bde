package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"blog_generator/internal/domain"
)

type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

// Upsert archives post keyed by slug and returns the stored id. Regenerating
// an existing slug replaces the row and keeps its id; inserted reports
// whether the row is new. post itself is not modified.
func (s *PostStore) Upsert(ctx context.Context, post *domain.Post) (uuid.UUID, bool, error) {
	content, err := json.Marshal(post.Content)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("marshal content: %w", err)
	}

	query := `
		INSERT INTO posts (
			id, topic, slug, title, description, author, keywords, reading_time,
			content, html, file_path, object_key, generated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (slug) DO UPDATE SET
			topic = EXCLUDED.topic,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			author = EXCLUDED.author,
			keywords = EXCLUDED.keywords,
			reading_time = EXCLUDED.reading_time,
			content = EXCLUDED.content,
			html = EXCLUDED.html,
			file_path = EXCLUDED.file_path,
			object_key = EXCLUDED.object_key,
			generated_at = EXCLUDED.generated_at,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted`

	keywords := post.Content.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	var id uuid.UUID
	var inserted bool
	err = GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		post.ID,
		post.Topic,
		post.Slug,
		post.Content.Title,
		post.Content.Description,
		post.Content.Author,
		pq.Array(keywords),
		post.Content.ReadingTime,
		content,
		post.HTML,
		post.FilePath,
		post.ObjectKey,
		post.GeneratedAt,
	).Scan(&id, &inserted)
	if err != nil {
		return uuid.Nil, false, err
	}

	return id, inserted, nil
}

// SetObjectKey records where the rendered HTML of an archived post was uploaded.
func (s *PostStore) SetObjectKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE posts SET object_key = $2, updated_at = NOW() WHERE id = $1",
		id, key,
	)
	return err
}

// GetBySlug returns the archived post summary, or nil if none exists.
func (s *PostStore) GetBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	var row struct {
		ID          uuid.UUID `db:"id"`
		Topic       string    `db:"topic"`
		Slug        string    `db:"slug"`
		Content     []byte    `db:"content"`
		HTML        string    `db:"html"`
		FilePath    string    `db:"file_path"`
		ObjectKey   string    `db:"object_key"`
		GeneratedAt time.Time `db:"generated_at"`
	}

	query := `
		SELECT id, topic, slug, content, html, file_path, object_key, generated_at
		FROM posts
		WHERE slug = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:          row.ID,
		Topic:       row.Topic,
		Slug:        row.Slug,
		HTML:        row.HTML,
		FilePath:    row.FilePath,
		ObjectKey:   row.ObjectKey,
		GeneratedAt: row.GeneratedAt,
	}
	if err := json.Unmarshal(row.Content, &post.Content); err != nil {
		return nil, fmt.Errorf("unmarshal content: %w", err)
	}

	return post, nil
}
