// Package openai implements the completion gateway for OpenAI-compatible chat APIs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"chatbot/internal/completion"
	"chatbot/internal/prompt"
)

const (
	ProviderName = "openai"
	DefaultModel = "gpt-4o-mini"
)

// Dialect uses a dedicated system message for the preamble
var Dialect = prompt.Dialect{
	Name:     ProviderName,
	Roles:    prompt.Roles{User: "user", Assistant: "assistant", System: "system"},
	Preamble: prompt.PreambleSystemEntry,
}

// Client wraps the openai-go chat completions service
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates an OpenAI gateway. baseURL is optional and selects a compatible server.
func NewClient(apiKey, model, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// one attempt per exchange
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Client{client: openai.NewClient(opts...), model: model}, nil
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
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(payload.Messages)+1)
	if payload.Instruction != "" {
		messages = append(messages, openai.SystemMessage(payload.Instruction))
	}
	for _, m := range payload.Messages {
		switch m.Role {
		case Dialect.Roles.System:
			messages = append(messages, openai.SystemMessage(m.Text))
		case Dialect.Roles.Assistant:
			messages = append(messages, openai.AssistantMessage(m.Text))
		default:
			messages = append(messages, openai.UserMessage(m.Text))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    c.model,
	}
	if payload.Params.Temperature != nil {
		params.Temperature = openai.Float(*payload.Params.Temperature)
	}
	if payload.Params.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(payload.Params.MaxOutputTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", completion.Rejected(ProviderName, apiErr.StatusCode, err)
		}
		return "", completion.Classify(ProviderName, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", completion.Unknown(ProviderName, completion.ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
