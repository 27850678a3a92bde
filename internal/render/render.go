package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strings"
	"time"

	"blog_generator/internal/domain"
)

//go:embed templates/post.html
var templateFS embed.FS

const dateLayout = "2006-01-02"

// Config holds the site settings used in page metadata.
type Config struct {
	SiteURL    string
	SiteName   string
	PublicPath string
}

// Page is the data passed to the post template.
type Page struct {
	Content      *domain.BlogContent
	SiteName     string
	CanonicalURL string
}

type Renderer struct {
	tmpl       *template.Template
	siteURL    string
	siteName   string
	publicPath string
}

func New(cfg Config) (*Renderer, error) {
	tmpl, err := template.New("post.html").Funcs(template.FuncMap{
		"join":       strings.Join,
		"formatDate": formatDate,
		"limit":      limit,
	}).ParseFS(templateFS, "templates/post.html")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	return &Renderer{
		tmpl:       tmpl,
		siteURL:    cfg.SiteURL,
		siteName:   cfg.SiteName,
		publicPath: cfg.PublicPath,
	}, nil
}

// Render produces the HTML document for content. Field values are escaped
// for the HTML context they land in.
func (r *Renderer) Render(content *domain.BlogContent, slug string) (string, error) {
	if content == nil {
		return "", fmt.Errorf("render: content is nil")
	}

	page := Page{
		Content:      content,
		SiteName:     r.siteName,
		CanonicalURL: r.CanonicalURL(slug),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// CanonicalURL is the public address of the post with the given slug.
func (r *Renderer) CanonicalURL(slug string) string {
	u, err := url.Parse(r.siteURL)
	if err != nil {
		return strings.TrimRight(r.siteURL, "/") + "/" + path.Join(r.publicPath, domain.FileName(slug))
	}
	u.Path = path.Join("/", u.Path, r.publicPath, domain.FileName(slug))
	return u.String()
}

// formatDate shows YYYY-MM-DD as "January 2, 2006"; anything else is shown as is.
func formatDate(s string) string {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format("January 2, 2006")
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
