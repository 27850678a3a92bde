package pexels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blog_generator/internal/domain"
)

const (
	SourceID   = "pexels"
	SourceName = "Pexels image search"

	// DefaultAltText is used for photos that come back without alt text.
	DefaultAltText = "Pexels image"
)

// Config holds Pexels source configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	PerPage        int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source searches Pexels for photos matching a query.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	perPage        int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new Pexels source.
func New(cfg Config, logger *slog.Logger) *Source {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		perPage:        perPage,
		maxAttempts:    maxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// SearchImages returns one page of photos for query, in ranking order.
func (s *Source) SearchImages(ctx context.Context, query string) ([]domain.Image, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: Pexels API key is not set", domain.ErrConfiguration)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(s.perPage))
	searchURL := s.baseURL + "/search?" + params.Encode()

	var resp *SearchResponse
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err = s.doRequest(ctx, searchURL)
		if err == nil {
			break
		}

		if attempt == s.maxAttempts {
			if s.maxAttempts > 1 {
				return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
			}
			return nil, err
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("search request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	images := s.transform(resp.Photos)

	s.logger.Debug("fetched images",
		"query", query,
		"images", len(images),
		"total_results", resp.TotalResults,
	)

	return images, nil
}

func (s *Source) doRequest(ctx context.Context, url string) (*SearchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &domain.UpstreamError{
			Service:    SourceID,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &searchResp, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

// transform keeps one image per photo so positions match the search
// ranking. A photo with no usable source keeps its slot with an empty URL.
func (s *Source) transform(photos []Photo) []domain.Image {
	images := make([]domain.Image, 0, len(photos))

	for _, p := range photos {
		url := p.Src.best()
		if url == "" {
			s.logger.Warn("photo without source url", "photo_id", p.ID)
		}

		alt := p.Alt
		if alt == "" {
			alt = DefaultAltText
		}

		images = append(images, domain.Image{
			URL:     url,
			AltText: alt,
		})
	}

	return images
}
