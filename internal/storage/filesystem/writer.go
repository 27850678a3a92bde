package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"blog_generator/internal/domain"
)

// Writer saves rendered posts as HTML files in a single directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write creates the output directory if needed and writes post.HTML to
// <dir>/blog-<slug>.html, returning the file path.
func (w *Writer) Write(ctx context.Context, post *domain.Post) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := domain.ValidateSlug(post.Slug); err != nil {
		return "", fmt.Errorf("invalid output file name: %w", err)
	}
	name := post.FileName()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(post.HTML), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}
