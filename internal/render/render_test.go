package render

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog_generator/internal/domain"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(Config{
		SiteURL:    "http://127.0.0.1:3000",
		SiteName:   "My Website",
		PublicPath: "blogs/popular",
	})
	require.NoError(t, err)
	return r
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func sampleContent() *domain.BlogContent {
	return &domain.BlogContent{
		Title:         "Benefits of Outdoor Games",
		Description:   "Why children should play outside more often.",
		Keywords:      []string{"outdoor", "games", "health"},
		Author:        "Jane Doe",
		Date:          "2024-05-01",
		ReadingTime:   "5 min read",
		FeaturedImage: domain.ImageRef{URL: "https://images.pexels.com/0.jpeg", AltText: "Kids outside", Caption: "Fresh air"},
		Sections: []domain.Section{
			{
				Title:     "Physical Health",
				Content:   "Running strengthens the heart.",
				ListItems: []string{"Heart", "Lungs"},
				Image:     &domain.ImageRef{URL: "https://images.pexels.com/1.jpeg", AltText: "Running", Caption: "Running"},
			},
			{
				Title:   "Social Skills",
				Content: "Team games teach cooperation.",
			},
		},
		Tags:         []string{"kids", "health", "play", "outdoors", "sport", "family"},
		RelatedPosts: []domain.RelatedPost{{Title: "Indoor Games", URL: "/blogs/indoor-games"}},
	}
}

func TestRender_SubstitutesFields(t *testing.T) {
	r := newTestRenderer(t)

	html, err := r.Render(sampleContent(), "benefits-of-outdoor-games")
	require.NoError(t, err)

	doc := parseHTML(t, html)

	assert.Equal(t, "Benefits of Outdoor Games | My Website", doc.Find("title").Text())
	assert.Equal(t, "Benefits of Outdoor Games", doc.Find("h1.article-title").Text())

	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	assert.Equal(t, "Why children should play outside more often.", desc)
	keywords, _ := doc.Find(`meta[name="keywords"]`).Attr("content")
	assert.Equal(t, "outdoor, games, health", keywords)
	author, _ := doc.Find(`meta[name="author"]`).Attr("content")
	assert.Equal(t, "Jane Doe", author)
	ogImage, _ := doc.Find(`meta[property="og:image"]`).Attr("content")
	assert.Equal(t, "https://images.pexels.com/0.jpeg", ogImage)
	ogURL, _ := doc.Find(`meta[property="og:url"]`).Attr("content")
	assert.Equal(t, "http://127.0.0.1:3000/blogs/popular/blog-benefits-of-outdoor-games.html", ogURL)

	assert.Equal(t, "By Jane Doe", doc.Find(`span[itemprop="author"]`).Text())
	assert.Equal(t, "May 1, 2024", doc.Find(`span[itemprop="datePublished"]`).Text())

	featured := doc.Find("header img.featured-image")
	src, _ := featured.Attr("src")
	alt, _ := featured.Attr("alt")
	assert.Equal(t, "https://images.pexels.com/0.jpeg", src)
	assert.Equal(t, "Kids outside", alt)
	assert.Equal(t, "Fresh air", doc.Find("header p.image-caption").Text())

	sections := doc.Find("section.article-section")
	require.Equal(t, 2, sections.Length())
	assert.Equal(t, "Physical Health", sections.Eq(0).Find("h2").Text())
	assert.Equal(t, 2, sections.Eq(0).Find("li").Length())
	assert.Equal(t, 1, sections.Eq(0).Find("img").Length())
	assert.Equal(t, 0, sections.Eq(1).Find("ul").Length())
	assert.Equal(t, 0, sections.Eq(1).Find("img").Length())

	assert.Equal(t, 6, doc.Find("main .tags .tag").Length())
	assert.Equal(t, 5, doc.Find("aside .popular-tags .tag").Length())

	related := doc.Find("aside .related-post a")
	require.Equal(t, 1, related.Length())
	href, _ := related.Attr("href")
	assert.Equal(t, "/blogs/indoor-games", href)
}

func TestRender_EscapesGeneratedText(t *testing.T) {
	r := newTestRenderer(t)
	content := sampleContent()
	content.Title = `<script>alert("x")</script>`
	content.FeaturedImage.AltText = `" onerror="alert(1)`

	html, err := r.Render(content, "xss")
	require.NoError(t, err)

	assert.NotContains(t, html, `<script>alert("x")</script>`)
	assert.NotContains(t, html, `alt="" onerror="alert(1)"`)

	doc := parseHTML(t, html)
	assert.Equal(t, `<script>alert("x")</script>`, doc.Find("h1.article-title").Text())
	alt, _ := doc.Find("header img.featured-image").Attr("alt")
	assert.Equal(t, `" onerror="alert(1)`, alt)
}

func TestRender_NoSidebarRelatedPostsWhenEmpty(t *testing.T) {
	r := newTestRenderer(t)
	content := sampleContent()
	content.RelatedPosts = nil

	html, err := r.Render(content, "x")
	require.NoError(t, err)

	doc := parseHTML(t, html)
	assert.Equal(t, 0, doc.Find(".related-post").Length())
	assert.NotContains(t, html, "Related Posts")
}

func TestRender_NilContent(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.Render(nil, "x")
	assert.Error(t, err)
}

func TestCanonicalURL(t *testing.T) {
	r, err := New(Config{SiteURL: "https://example.com/site/", PublicPath: "/blogs/popular/"})
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/site/blogs/popular/blog-go-tips.html", r.CanonicalURL("go-tips"))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "January 15, 2025", formatDate("2025-01-15"))
	assert.Equal(t, "next week", formatDate("next week"))
}

func TestLimit(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, limit([]string{"a", "b", "c"}, 2))
	assert.Equal(t, []string{"a"}, limit([]string{"a"}, 5))
	assert.Empty(t, limit(nil, 5))
}
