// Package openrouter talks to the OpenRouter REST API: the model catalog and
// streaming chat completions.
package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/gloriamundo/gloriamundo/internal/client"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1"

type Options struct {
	BaseURL     string
	APIKey      string
	Referer     string
	Title       string
	ModelFilter string       // ECMAScript regex applied to catalog ids
	HTTPClient  *http.Client // nil uses the proxy-aware upstream client
}

type Client struct {
	baseURL    string
	apiKey     string
	referer    string
	title      string
	filter     *regexp2.Regexp
	httpClient *http.Client
}

func New(opts Options) (*Client, error) {
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     strings.TrimSpace(opts.APIKey),
		referer:    opts.Referer,
		title:      opts.Title,
		httpClient: opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if opts.ModelFilter != "" {
		re, err := regexp2.Compile(opts.ModelFilter, regexp2.ECMAScript)
		if err != nil {
			return nil, fmt.Errorf("invalid model filter: %w", err)
		}
		c.filter = re
	}
	return c, nil
}

func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

func (c *Client) getHTTPClient() (*http.Client, error) {
	if c.httpClient != nil {
		return c.httpClient, nil
	}
	return client.Upstream()
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}
}

// StreamChat posts a streaming chat completion. The caller owns the response
// body and must check the status code.
func (c *Client) StreamChat(ctx context.Context, chat ChatCompletion) (*http.Response, error) {
	if !c.HasAPIKey() {
		return nil, ErrNoAPIKey
	}
	body, err := chat.Body()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	hc, err := c.getHTTPClient()
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// ReadError drains a non-2xx response into an error carrying the upstream
// message when one is present.
func ReadError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		return &UpstreamError{Status: resp.StatusCode, Message: payload.Error.Message}
	}
	return &UpstreamError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
