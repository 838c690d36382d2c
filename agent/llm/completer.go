// Package llm adapts the OpenRouter SDK client to the completion port
// the agents consume.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	"github.com/wareechai/trio-concierge/agent/contract"
)

// Client implements contract.Completer on top of an OpenAI-compatible
// chat completions API.
type Client struct {
	api         *openaisdk.Client
	model       string
	temperature float64
	maxTokens   int64
}

var _ contract.Completer = (*Client)(nil)

func NewClient(api *openaisdk.Client, model string, temperature float64, maxTokens int64) (*Client, error) {
	if api == nil {
		return nil, errors.New("nil sdk client")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("model name is required")
	}
	return &Client{
		api:         api,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (c *Client) Generate(ctx context.Context, system string, msgs []contract.Message) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
	}
	if c.temperature > 0 {
		params.Temperature = openaisdk.Float(c.temperature)
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(c.maxTokens)
	}

	if strings.TrimSpace(system) != "" {
		params.Messages = append(params.Messages, openaisdk.SystemMessage(system))
	}
	for _, m := range msgs {
		switch m.Role {
		case contract.RoleAssistant:
			params.Messages = append(params.Messages, openaisdk.AssistantMessage(m.Content))
		case contract.RoleSystem:
			params.Messages = append(params.Messages, openaisdk.SystemMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openaisdk.UserMessage(m.Content))
		}
	}
	if len(params.Messages) == 0 {
		return "", fmt.Errorf("%w: no messages", contract.ErrValidation)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contract.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", contract.ErrModelInvoke)
	}

	content := resp.Choices[0].Message.Content
	log.Debug().Str("model", c.model).Int("length", len(content)).Msg("completion generated")
	return content, nil
}
