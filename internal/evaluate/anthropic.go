// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/pr-bench/pkg/types"
)

// ClaudeBackend judges answers through the Claude Messages API.
type ClaudeBackend struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaudeBackend builds a backend from the evaluation config. The API key
// is required; model and token budget fall back to defaults.
func NewClaudeBackend(cfg types.EvalConfig) (*ClaudeBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required (set it in .secrets/anthropic-api-key or the config)")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-haiku-4-5"
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &ClaudeBackend{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Evaluate sends the judging prompt and returns the concatenated text
// blocks of the response.
func (b *ClaudeBackend) Evaluate(ctx context.Context, prompt string) (string, error) {
	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: b.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("Claude API returned no text content")
	}
	return text.String(), nil
}
