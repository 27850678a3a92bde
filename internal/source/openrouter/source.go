package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"blog_generator/internal/domain"
)

const (
	SourceID   = "openrouter"
	SourceName = "OpenRouter chat completions"
)

// Config holds completion source configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	Temperature    float64
	MaxTokens      int
	SiteURL        string
	AppTitle       string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source generates BlogContent through an OpenAI-compatible chat-completion API.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	model          string
	temperature    float64
	maxTokens      int
	siteURL        string
	appTitle       string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new completion source.
func New(cfg Config, logger *slog.Logger) *Source {
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
		model:          cfg.Model,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		siteURL:        cfg.SiteURL,
		appTitle:       cfg.AppTitle,
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

// GenerateContent asks the model for a blog document about topic and parses it.
func (s *Source) GenerateContent(ctx context.Context, topic string) (*domain.BlogContent, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: completion API key is not set", domain.ErrConfiguration)
	}

	req := ChatRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: contentPrompt(topic)},
		},
		Temperature:    s.temperature,
		MaxTokens:      s.maxTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	text, err := s.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	content, err := ParseContent(text)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("parsed generated content",
		"title", content.Title,
		"sections", len(content.Sections),
	)

	return content, nil
}

func (s *Source) complete(ctx context.Context, chatReq ChatRequest) (string, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var text string
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		text, err = s.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("completion request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if s.maxAttempts > 1 {
		return "", fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
	}
	return "", err
}

func (s *Source) doRequest(ctx context.Context, body []byte) (string, error) {
	url := s.baseURL + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if s.siteURL != "" {
		req.Header.Set("HTTP-Referer", s.siteURL)
	}
	if s.appTitle != "" {
		req.Header.Set("X-Title", s.appTitle)
	}

	startTime := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.UpstreamError{
			Service:    SourceID,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp),
		}
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 || strings.TrimSpace(chatResp.Choices[0].Message.Content) == "" {
		return "", &domain.UpstreamError{
			Service: SourceID,
			Message: "no content in completion response",
		}
	}

	s.logger.Debug("completion received",
		"duration", time.Since(startTime),
		"total_tokens", chatResp.Usage.TotalTokens,
		"finish_reason", chatResp.Choices[0].FinishReason,
	)

	return chatResp.Choices[0].Message.Content, nil
}

// upstreamMessage prefers error.message from an OpenAI-style body and falls
// back to the raw body, then the status text.
func upstreamMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp ErrorResponse
	if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return http.StatusText(resp.StatusCode)
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
