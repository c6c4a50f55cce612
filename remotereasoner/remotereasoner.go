// Package remotereasoner implements scribe.RemoteReasoner against any
// OpenAI-compatible chat completions API — OpenRouter by default, but
// also OpenAI, Groq, Together, or a local vLLM/Ollama endpoint.
package remotereasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	scribe "github.com/arcoslabs/scribe"
)

// Client is an OpenAI-compatible chat completions client.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	name    string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client (e.g. for a custom
// timeout or transport in tests).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithName overrides the reasoner's Name() (default "openrouter").
func WithName(name string) Option {
	return func(cl *Client) { cl.name = name }
}

// New creates a Client. endpoint is the full chat completions URL
// (e.g. "https://openrouter.ai/api/v1/chat/completions", the
// config.ModelsConfig.OpenRouterURL default). apiKey is sent as a
// Bearer token when non-empty, so local endpoints (Ollama, vLLM) work
// with an empty key.
func New(apiKey, model, endpoint string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: endpoint,
		name:    "openrouter",
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the reasoner for logging/tracing.
func (c *Client) Name() string { return c.name }

// Chat sends req and returns the parsed response. Non-2xx responses are
// returned as *scribe.ErrHTTP so scribe.WithRetry can classify them.
func (c *Client) Chat(ctx context.Context, req scribe.ChatRequest) (scribe.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	body := buildBody(req, model)

	resp, err := c.sendHTTP(ctx, body)
	if err != nil {
		return scribe.ChatResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return scribe.ChatResponse{}, c.httpErr(resp)
	}

	var wireResp chatResponseWire
	if err := json.NewDecoder(resp.Body).Decode(&wireResp); err != nil {
		return scribe.ChatResponse{}, fmt.Errorf("remotereasoner: decode response: %w", err)
	}
	return parseResponse(wireResp), nil
}

func (c *Client) sendHTTP(ctx context.Context, body chatRequestWire) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("remotereasoner: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("remotereasoner: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return c.http.Do(httpReq)
}

func (c *Client) httpErr(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &scribe.ErrHTTP{
		Status:     resp.StatusCode,
		Body:       string(body),
		RetryAfter: scribe.ParseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

var _ scribe.RemoteReasoner = (*Client)(nil)
