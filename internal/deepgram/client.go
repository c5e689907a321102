// Package deepgram holds the HTTP plumbing shared by the Deepgram REST clients.
package deepgram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the public Deepgram API.
	DefaultBaseURL = "https://api.deepgram.com"

	maxErrorBodySize = 4096
	maxResponseSize  = 50 * 1024 * 1024
)

// Config holds configuration for the Deepgram REST client.
type Config struct {
	APIKey     string
	BaseURL    string       // defaults to DefaultBaseURL
	HTTPClient *http.Client // defaults to http.DefaultClient
}

// Client sends authenticated requests to the Deepgram REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a new Deepgram REST client.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Request describes a single POST to the API.
type Request struct {
	Path        string // e.g. "/v1/listen"
	Query       url.Values
	Body        io.Reader
	ContentType string
	Accept      string
}

// Response is a successful API reply.
type Response struct {
	Body        []byte
	ContentType string
}

// Post performs the request and returns the body of a 2xx reply.
// Transport failures and non-2xx replies both come back as errors.
func (c *Client) Post(ctx context.Context, r Request) (*Response, error) {
	endpoint := c.baseURL + r.Path
	if len(r.Query) > 0 {
		endpoint += "?" + r.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Token "+c.apiKey)
	if r.ContentType != "" {
		httpReq.Header.Set("Content-Type", r.ContentType)
	}
	if r.Accept != "" {
		httpReq.Header.Set("Accept", r.Accept)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("Deepgram API error: %s - %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}
