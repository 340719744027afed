// Package intelligence is the outbound client for the backing intelligence
// service. It issues exactly one request per call — retries, if wanted, are
// caller policy, since an upstream call may carry a point-of-sale side
// effect that must not be duplicated.
package intelligence

import (
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

	"portal-genie/internal/domain"
)

const defaultTimeout = 10 * time.Second

// askRequest is the upstream request shape. The service names the match
// limit top_k.
type askRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// TokenSource resolves the service token by parameter name, typically
// backed by paramstore.Client.
type TokenSource interface {
	ServiceToken(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("intelligence: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// TransportError marks a failure to obtain a usable reply from the service:
// connection failures, timeouts, and non-2xx statuses. Callers distinguish
// it from decode or caller errors to surface "upstream unavailable".
type TransportError struct {
	Reason string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "intelligence: " + e.Reason
	}
	return fmt.Sprintf("intelligence: %s: %v", e.Reason, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client is a focused HTTP client for the intelligence service.
type Client struct {
	baseURL    string
	httpClient *http.Client

	tokens     TokenSource
	tokenParam string

	keyOnce sync.Once
	token   string
	keyErr  error
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. The replacement should
// carry its own timeout; the upstream call must always be bounded.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithToken configures bearer authentication, resolving the token from the
// given SSM parameter on first use. Without this option requests are sent
// unauthenticated.
func WithToken(tokens TokenSource, paramName string) Option {
	return func(c *Client) {
		c.tokens = tokens
		c.tokenParam = strings.TrimSpace(paramName)
	}
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("intelligence: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokenParam != "" && c.tokens == nil {
		return nil, errors.New("intelligence: token parameter configured without a source")
	}
	return c, nil
}

// resolveToken fetches the service token on the first call and returns the
// cached result on every subsequent call within the same process lifetime.
func (c *Client) resolveToken(ctx context.Context) (string, error) {
	if c.tokenParam == "" {
		return "", nil
	}
	c.keyOnce.Do(func() {
		token, err := c.tokens.ServiceToken(ctx, c.tokenParam)
		if err != nil {
			c.keyErr = fmt.Errorf("intelligence: resolve service token: %w", err)
			return
		}
		c.token = token
	})
	return c.token, c.keyErr
}

// resolvedHTTPClient returns the configured HTTP client, or a default with
// a bounded timeout if none was set (e.g. in tests that nil out the field).
func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

// Ask forwards one query to POST {base}/assistant and returns the raw,
// still-unclassified reply.
func (c *Client) Ask(ctx context.Context, query string, topK int) (domain.RawResult, error) {
	body, err := json.Marshal(askRequest{Query: query, TopK: topK})
	if err != nil {
		return domain.RawResult{}, fmt.Errorf("intelligence: marshal request: %w", err)
	}

	raw, err := c.post(ctx, c.baseURL+"/assistant", body)
	if err != nil {
		return domain.RawResult{}, err
	}

	var result domain.RawResult
	if decErr := json.Unmarshal(raw, &result); decErr != nil {
		return domain.RawResult{}, fmt.Errorf("intelligence: decode response: %w", decErr)
	}
	return result, nil
}

// Feedback forwards one feedback event verbatim to POST {base}/feedback and
// returns the service's reply body for the caller to relay.
func (c *Client) Feedback(ctx context.Context, ev domain.FeedbackEvent) (json.RawMessage, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("intelligence: marshal feedback: %w", err)
	}
	return c.post(ctx, c.baseURL+"/feedback", body)
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	token, err := c.resolveToken(ctx)
	if err != nil {
		return nil, err
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("intelligence: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, &TransportError{Reason: "request failed", Err: doErr}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &TransportError{
			Reason: "unexpected status",
			Err: &HTTPStatusError{
				StatusCode: res.StatusCode,
				URL:        url,
				Body:       string(buf),
			},
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("intelligence: read response body: %w", err)
	}
	return buf, nil
}
