// Package gemini implements the completion gateway for Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"chatbot/internal/completion"
	"chatbot/internal/prompt"
)

const (
	ProviderName = "gemini"
	DefaultModel = "gemini-2.0-flash"
)

// Dialect maps assistant turns to the "model" role; the preamble becomes SystemInstruction
var Dialect = prompt.Dialect{
	Name:     ProviderName,
	Roles:    prompt.Roles{User: string(genai.RoleUser), Assistant: string(genai.RoleModel), System: "system"},
	Preamble: prompt.PreambleInstruction,
}

// Client wraps genai.Client
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini gateway. baseURL is optional.
func NewClient(ctx context.Context, apiKey, model, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{client: client, model: model}, nil
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
	contents := make([]*genai.Content, 0, len(payload.Messages))
	for _, m := range payload.Messages {
		// Gemini has no system role inside contents
		if m.Role == Dialect.Roles.System {
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Text, genai.Role(m.Role)))
	}

	config := &genai.GenerateContentConfig{}
	if payload.Instruction != "" {
		config.SystemInstruction = genai.NewContentFromText(payload.Instruction, genai.RoleUser)
	}
	if payload.Params.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*payload.Params.Temperature))
	}
	if payload.Params.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(payload.Params.MaxOutputTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", classify(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", completion.Unknown(ProviderName, completion.ErrEmptyCompletion)
	}
	return text, nil
}

func classify(err error) *completion.Error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return completion.Rejected(ProviderName, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return completion.Rejected(ProviderName, apiErrPtr.Code, err)
	}
	return completion.Classify(ProviderName, err)
}
