//go:build integration

package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"blog_generator/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_posts.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM post_tags")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM tags")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM posts")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func newPost(slug, title string) *domain.Post {
	return &domain.Post{
		ID:    uuid.New(),
		Topic: title,
		Slug:  slug,
		Content: domain.BlogContent{
			Title:       title,
			Description: "Description of " + title,
			Keywords:    []string{"go", "testing"},
			Author:      "Test Author",
			ReadingTime: "3 min read",
			Tags:        []string{"go"},
		},
		HTML:        "<html>" + title + "</html>",
		FilePath:    "blogs/popular/blog-" + slug + ".html",
		GeneratedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresIntegrationSuite) TestPostStore_Upsert_Insert() {
	store := NewPostStore(s.db)
	post := newPost("go-testing", "Go Testing")
	originalID := post.ID

	id, isNew, err := store.Upsert(s.ctx, post)
	s.NoError(err)
	s.True(isNew)
	s.Equal(originalID, id)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM posts WHERE slug = $1", "go-testing")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestPostStore_Upsert_RegenerateKeepsID() {
	store := NewPostStore(s.db)

	first := newPost("go-testing", "Go Testing")
	firstID, _, err := store.Upsert(s.ctx, first)
	s.Require().NoError(err)

	second := newPost("go-testing", "Go Testing, Revisited")
	secondID, isNew, err := store.Upsert(s.ctx, second)
	s.NoError(err)
	s.False(isNew)
	s.Equal(firstID, secondID)
	s.NotEqual(second.ID, secondID)

	var title string
	err = s.db.GetContext(s.ctx, &title, "SELECT title FROM posts WHERE id = $1", first.ID)
	s.NoError(err)
	s.Equal("Go Testing, Revisited", title)
}

func (s *PostgresIntegrationSuite) TestPostStore_GetBySlug() {
	store := NewPostStore(s.db)
	post := newPost("go-testing", "Go Testing")
	_, _, err := store.Upsert(s.ctx, post)
	s.Require().NoError(err)

	got, err := store.GetBySlug(s.ctx, "go-testing")
	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal(post.ID, got.ID)
	s.Equal("Go Testing", got.Content.Title)
	s.Equal([]string{"go", "testing"}, got.Content.Keywords)
	s.Equal(post.HTML, got.HTML)
	s.True(post.GeneratedAt.Equal(got.GeneratedAt))

	missing, err := store.GetBySlug(s.ctx, "nope")
	s.NoError(err)
	s.Nil(missing)
}

func (s *PostgresIntegrationSuite) TestPostStore_SetObjectKey() {
	store := NewPostStore(s.db)
	post := newPost("go-testing", "Go Testing")
	id, _, err := store.Upsert(s.ctx, post)
	s.Require().NoError(err)

	s.NoError(store.SetObjectKey(s.ctx, id, "blogs/popular/blog-go-testing.html"))

	got, err := store.GetBySlug(s.ctx, "go-testing")
	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal("blogs/popular/blog-go-testing.html", got.ObjectKey)
}

func (s *PostgresIntegrationSuite) TestTagStore_UpsertBatch() {
	store := NewTagStore(s.db)

	ids, err := store.UpsertBatch(s.ctx, []string{"go", "testing", "go", " "})
	s.NoError(err)
	s.Len(ids, 2)

	again, err := store.UpsertBatch(s.ctx, []string{"testing", "go", "new"})
	s.NoError(err)
	s.Require().Len(again, 3)
	s.Equal(ids[1], again[0])
	s.Equal(ids[0], again[1])

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM tags")
	s.NoError(err)
	s.Equal(3, count)
}

func (s *PostgresIntegrationSuite) TestTagStore_LinkToPost_Replaces() {
	posts := NewPostStore(s.db)
	tags := NewTagStore(s.db)

	post := newPost("go-testing", "Go Testing")
	_, _, err := posts.Upsert(s.ctx, post)
	s.Require().NoError(err)

	ids, err := tags.UpsertBatch(s.ctx, []string{"go", "testing"})
	s.Require().NoError(err)
	s.NoError(tags.LinkToPost(s.ctx, post.ID, ids))

	labels, err := tags.GetByPostID(s.ctx, post.ID)
	s.NoError(err)
	s.Equal([]string{"go", "testing"}, labels)

	ids, err = tags.UpsertBatch(s.ctx, []string{"sql"})
	s.Require().NoError(err)
	s.NoError(tags.LinkToPost(s.ctx, post.ID, ids))

	labels, err = tags.GetByPostID(s.ctx, post.ID)
	s.NoError(err)
	s.Equal([]string{"sql"}, labels)
}

func (s *PostgresIntegrationSuite) TestTransactionManager_RollbackOnError() {
	tm := NewTransactionManager(s.db)
	posts := NewPostStore(s.db)

	err := tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
		if _, _, err := posts.Upsert(txCtx, newPost("rolled-back", "Rolled Back")); err != nil {
			return err
		}
		return errors.New("boom")
	})
	s.EqualError(err, "boom")

	got, err := posts.GetBySlug(s.ctx, "rolled-back")
	s.NoError(err)
	s.Nil(got)
}

func (s *PostgresIntegrationSuite) TestTransactionManager_Commit() {
	tm := NewTransactionManager(s.db)
	posts := NewPostStore(s.db)
	tags := NewTagStore(s.db)
	post := newPost("committed", "Committed")

	err := tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
		if _, _, err := posts.Upsert(txCtx, post); err != nil {
			return err
		}
		ids, err := tags.UpsertBatch(txCtx, post.Content.Tags)
		if err != nil {
			return err
		}
		return tags.LinkToPost(txCtx, post.ID, ids)
	})
	s.NoError(err)

	labels, err := tags.GetByPostID(s.ctx, post.ID)
	s.NoError(err)
	s.Equal([]string{"go"}, labels)
}

func (s *PostgresIntegrationSuite) TestTransactionManager_RollbackOnPanic() {
	tm := NewTransactionManager(s.db)
	posts := NewPostStore(s.db)

	s.Panics(func() {
		_ = tm.WithTransaction(s.ctx, func(txCtx context.Context) error {
			if _, _, err := posts.Upsert(txCtx, newPost("panicked", "Panicked")); err != nil {
				return err
			}
			panic("boom")
		})
	})

	got, err := posts.GetBySlug(s.ctx, "panicked")
	s.NoError(err)
	s.Nil(got)
}
