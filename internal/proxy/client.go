package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 2 << 10 // keep error snippets short
)

// Client communicates with an OpenAI-compatible completion service.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	referer    string
	title      string
}

// NewClient creates a completion client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		referer: "https://github.com/kalambet/hansei",
		title:   "hansei",
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL
// (for testing or alternative providers).
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Complete sends one chat completion request and returns the assistant's
// message content. Exactly one attempt is made; failures surface as the
// typed errors in this package and the caller decides whether to retry.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &AuthError{Status: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &ThrottledError{Status: resp.StatusCode}
	case resp.StatusCode >= 500:
		return "", &TransientError{Status: resp.StatusCode}
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var result ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &UpstreamError{Status: resp.StatusCode, Body: fmt.Sprintf("undecodable response body: %v", err)}
	}
	if len(result.Choices) == 0 {
		return "", &UpstreamError{Status: resp.StatusCode, Body: "response contained no choices"}
	}

	return result.Choices[0].Message.Content, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", c.title)
}
