// Package cohere implements the completion gateway for Cohere's chat endpoint.
package cohere

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"chatbot/internal/completion"
	"chatbot/internal/prompt"
)

const (
	ProviderName   = "cohere"
	DefaultBaseURL = "https://api.cohere.com"
	DefaultModel   = "command"
)

// Dialect is Cohere's chat_history vocabulary. The preamble has its own request field.
var Dialect = prompt.Dialect{
	Name:     ProviderName,
	Roles:    prompt.Roles{User: "USER", Assistant: "CHATBOT", System: "SYSTEM"},
	Preamble: prompt.PreambleInstruction,
}

// Client calls POST {baseURL}/v1/chat
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at another host
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Cohere gateway
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("cohere API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	c := &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dialect implements completion.Gateway
func (c *Client) Dialect() prompt.Dialect {
	return Dialect
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Complete implements completion.Gateway
func (c *Client) Complete(ctx context.Context, payload prompt.Payload) (string, error) {
	body, err := c.requestBody(payload)
	if err != nil {
		return "", completion.Unknown(ProviderName, fmt.Errorf("failed to build request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat", bytes.NewReader(body))
	if err != nil {
		return "", completion.Unknown(ProviderName, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", completion.Unavailable(ProviderName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", completion.Unavailable(ProviderName, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(raw, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", completion.Rejected(ProviderName, resp.StatusCode, errors.New(msg))
	}

	if !gjson.ValidBytes(raw) {
		return "", completion.Unknown(ProviderName, fmt.Errorf("invalid JSON response"))
	}

	text := gjson.GetBytes(raw, "text").String()
	if strings.TrimSpace(text) == "" {
		return "", completion.Unknown(ProviderName, completion.ErrEmptyCompletion)
	}
	return text, nil
}

// requestBody renders the payload as a Cohere chat request
func (c *Client) requestBody(payload prompt.Payload) ([]byte, error) {
	body := []byte(`{}`)
	var err error

	set := func(path string, value any) {
		if err != nil {
			return
		}
		body, err = sjson.SetBytes(body, path, value)
	}

	set("model", c.model)
	set("message", payload.Latest().Text)
	if payload.Instruction != "" {
		set("preamble", payload.Instruction)
	}
	if payload.Params.Temperature != nil {
		set("temperature", *payload.Params.Temperature)
	}
	if payload.Params.MaxOutputTokens > 0 {
		set("max_tokens", payload.Params.MaxOutputTokens)
	}
	for _, m := range payload.History() {
		set("chat_history.-1", map[string]string{"role": m.Role, "message": m.Text})
	}

	return body, err
}
