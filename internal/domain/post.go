package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const fileNamePrefix = "blog-"

type Post struct {
	ID          uuid.UUID
	Topic       string
	Slug        string
	Content     BlogContent
	HTML        string
	URL         string
	FilePath    string
	ObjectKey   string
	GeneratedAt time.Time
}

// FileName returns the output file name for the post, e.g. "blog-benefits-of-outdoor-games.html".
func (p *Post) FileName() string {
	return FileName(p.Slug)
}

func FileName(slug string) string {
	return fileNamePrefix + slug + ".html"
}

// ValidateSlug reports whether slug yields a plain file name in the output
// directory.
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrEmptyTopic
	}
	if strings.ContainsAny(slug, `/\`) || slug == "." || slug == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, slug)
	}
	return nil
}

// Slug lowercases the topic and replaces runs of whitespace with a single hyphen.
func Slug(topic string) string {
	return strings.Join(strings.Fields(strings.ToLower(topic)), "-")
}

// GenerationResult holds statistics about a single generation run.
type GenerationResult struct {
	PostID    uuid.UUID
	Slug      string
	Path      string
	ObjectKey string
	Archived  bool
	IsNew     bool
	Uploaded  bool
	Published bool
	Errors    int
	Duration  time.Duration
}
