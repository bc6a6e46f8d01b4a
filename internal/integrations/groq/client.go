// Package groq is a focused client for Groq's OpenAI-compatible chat
// completions API, used both for one-shot generations (vibe descriptions)
// and SSE-streamed chat turns.
package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"localvibe/internal/domain"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// Params are the generation parameters accepted by the completion service.
// Nil pointer fields are omitted from the request.
type Params struct {
	Temperature *float64
	MaxTokens   int
	Seed        *int
}

// Chunk is one increment of a streamed completion. Done marks the end of
// the stream; Err reports a mid-stream failure and is always final.
type Chunk struct {
	Delta string
	Done  bool
	Err   error
}

// chatRequest is the minimal request shape for the Chat Completions endpoint.
type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature *float64             `json:"temperature,omitempty"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Seed        *int                 `json:"seed,omitempty"`
	Stream      bool                 `json:"stream,omitempty"`
}

// chatResponse is the minimal response shape for a non-streamed completion.
type chatResponse struct {
	Choices []struct {
		Message domain.ChatMessage `json:"message"`
	} `json:"choices"`
}

type streamResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// errorResponse is the structured error payload returned on failure.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SecretFetcher resolves named secrets; satisfied by *secrets.Source.
type SecretFetcher interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("groq: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Message)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls the Groq chat completions endpoint. The API key is fetched
// from the parameter store on first use and reused for the process lifetime.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	secrets     SecretFetcher
	paramPrefix string

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client backed by the given SecretFetcher for API key
// retrieval under "<paramPrefix>/groq-api-key".
func NewClient(sf SecretFetcher, paramPrefix string, opts ...Option) (*Client, error) {
	if sf == nil {
		return nil, errors.New("groq: secret fetcher must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("groq: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		secrets:     sf,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = c.secrets.Fetch(ctx, c.paramPrefix+"/groq-api-key")
		if c.keyErr == nil && strings.TrimSpace(c.apiKey) == "" {
			c.keyErr = errors.New("groq: API key is empty")
		}
	})
	return c.apiKey, c.keyErr
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base + "/chat/completions"
}

// Chat performs a single, non-streamed completion and returns the generated
// text of the first choice.
func (c *Client) Chat(ctx context.Context, model string, messages []domain.ChatMessage, params Params) (string, error) {
	resp, url, err := c.postChat(ctx, model, messages, params, false)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("groq: read response body: %w", err)
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("groq: decode response from %s: %w", url, err)
	}
	if len(payload.Choices) == 0 {
		return "", errors.New("groq: no choices in response")
	}
	return strings.TrimSpace(payload.Choices[0].Message.Content), nil
}

// StreamChat performs a streamed completion. Deltas are delivered on the
// returned channel in the order the service emits them; the channel is
// closed after the final Done (or Err) chunk.
func (c *Client) StreamChat(ctx context.Context, model string, messages []domain.ChatMessage, params Params) (<-chan Chunk, error) {
	resp, _, err := c.postChat(ctx, model, messages, params, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan Chunk)
	go func() {
		defer resp.Body.Close()
		defer close(ch)

		// emit blocks until the consumer takes the chunk or the context is
		// cancelled. Without the cancel arm a consumer that stops draining
		// would leak this goroutine and the response body.
		emit := func(chunk Chunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				emit(Chunk{Done: true})
				return
			}
			var payload streamResponse
			if err := json.Unmarshal([]byte(data), &payload); err != nil {
				emit(Chunk{Err: fmt.Errorf("groq: decode stream chunk: %w", err), Done: true})
				return
			}
			for _, choice := range payload.Choices {
				if choice.Delta.Content != "" {
					if !emit(Chunk{Delta: choice.Delta.Content}) {
						return
					}
				}
				if choice.FinishReason != nil {
					emit(Chunk{Done: true})
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			emit(Chunk{Err: fmt.Errorf("groq: read stream: %w", err), Done: true})
			return
		}
		emit(Chunk{Done: true})
	}()
	return ch, nil
}

func (c *Client) postChat(ctx context.Context, model string, messages []domain.ChatMessage, params Params, stream bool) (*http.Response, string, error) {
	if model == "" {
		return nil, "", errors.New("groq: model must not be empty")
	}
	if len(messages) == 0 {
		return nil, "", errors.New("groq: at least one message must be provided")
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return nil, "", err
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
		Seed:        params.Seed,
		Stream:      stream,
	})
	if err != nil {
		return nil, "", fmt.Errorf("groq: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("groq: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("groq: request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, "", &HTTPStatusError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Message:    errorMessage(buf),
		}
	}
	return resp, url, nil
}

// errorMessage extracts the structured upstream error message when present,
// falling back to the raw body.
func errorMessage(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return strings.TrimSpace(string(body))
}
