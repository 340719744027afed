// Package portal is the console-side client for the gateway's public
// contract. The gateway discriminates its 200 bodies by shape; this client
// decodes them once, at this boundary, into the normalized answer the
// session consumes.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"portal-genie/internal/domain"
	"portal-genie/internal/normalize"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx reply from the gateway, carrying its error body.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("portal: %s (status %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("portal: %s (status %d): %s", e.Code, e.StatusCode, e.Details)
}

// Client talks to a running gateway. It satisfies the session's Gateway
// interface.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the gateway at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("portal: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Ask submits one query and returns the gateway's answer, classified.
func (c *Client) Ask(ctx context.Context, q domain.Query) (domain.NormalizedAnswer, error) {
	raw, err := c.post(ctx, c.baseURL+"/assistant", q)
	if err != nil {
		return domain.NormalizedAnswer{}, err
	}

	var result domain.RawResult
	if decErr := json.Unmarshal(raw, &result); decErr != nil {
		return domain.NormalizedAnswer{}, fmt.Errorf("portal: decode answer: %w", decErr)
	}
	return normalize.Normalize(result), nil
}

// SubmitFeedback relays one verdict. A non-2xx reply comes back as an
// *APIError; the caller decides how loudly to report it.
func (c *Client) SubmitFeedback(ctx context.Context, ev domain.FeedbackEvent) error {
	_, err := c.post(ctx, c.baseURL+"/feedback", ev)
	return err
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("portal: marshal request: %w", err)
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("portal: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")

	res, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("portal: request failed: %w", doErr)
	}
	defer func() { _ = res.Body.Close() }()

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("portal: read response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		if jsonErr := json.Unmarshal(buf, apiErr); jsonErr != nil || apiErr.Code == "" {
			apiErr.Code = "UNEXPECTED_STATUS"
			apiErr.Details = strings.TrimSpace(string(buf))
		}
		return nil, apiErr
	}
	return buf, nil
}
