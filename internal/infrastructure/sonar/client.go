// Package sonar implements the primary text-answering source: a
// Perplexity-style chat-completions API queried with free-text prompts.
package sonar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cartlens/backend/internal/domain"
)

const (
	defaultBaseURL = "https://api.perplexity.ai/chat/completions"
	defaultModel   = "sonar"
	maxAttempts    = 3
)

// Client calls the chat-completions endpoint and maps every upstream failure
// mode onto domain.ErrSourceFailure.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewClient creates a source client. An empty apiKey yields a client that
// reports itself unavailable instead of failing construction.
func NewClient(apiKey, baseURL, model string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 45 * time.Second},
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		// Keep well under provider limits; bursts cover fan-out spikes.
		limiter: rate.NewLimiter(rate.Limit(2), 10),
		log:     log,
	}
}

// Available reports whether credentials are configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations     []string              `json:"citations"`
	SearchResults []domain.SearchResult `json:"search_results"`
}

// Query sends one free-text prompt and returns the raw answer plus citation
// metadata. Transient failures are retried with backoff.
func (c *Client) Query(ctx context.Context, prompt string) (*domain.RawSourceResponse, error) {
	if !c.Available() {
		return nil, domain.ErrSourceUnavailable
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   2048,
		Temperature: 0.1,
		TopP:        0.9,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
		}

		resp, err := c.doRequest(ctx, body)
		if err != nil {
			lastErr = err
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			c.log.Warn("sonar request failed", zap.Int("attempt", attempt), zap.Error(err))
			if !sleepCtx(ctx, time.Duration(attempt)*500*time.Millisecond) {
				break
			}
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, lastErr)
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*domain.RawSourceResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, errors.New("invalid API key")
	case http.StatusTooManyRequests:
		return nil, errors.New("rate limit exceeded")
	default:
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("malformed payload: %v", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("malformed payload: no choices")
	}

	return &domain.RawSourceResponse{
		Content:       parsed.Choices[0].Message.Content,
		Citations:     parsed.Citations,
		SearchResults: parsed.SearchResults,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
