// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/notion-formatter/pkg/types"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// errEmptyResponse is returned when the model answers with no content.
var errEmptyResponse = errors.New("received empty response from OpenAI")

// OpenAIBackend calls the OpenAI chat completions API in JSON mode.
type OpenAIBackend struct {
	Client *openai.Client
	Model  string
}

// NewOpenAIBackend builds a backend from cfg.
func NewOpenAIBackend(cfg types.AIConfig) *OpenAIBackend {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIBackend{Client: openai.NewClientWithConfig(oc), Model: model}
}

// Complete sends the system and user prompts and returns the raw message
// content, which the model is instructed to format as a JSON object.
func (b *OpenAIBackend) Complete(ctx context.Context, p Prompts) (string, error) {
	resp, err := b.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
