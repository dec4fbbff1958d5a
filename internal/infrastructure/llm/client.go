package llm

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"ContentEngine/internal/config"
)

// Client wraps the OpenAI-compatible chat completions API used by the
// discovery and drafting agents.
type Client struct {
	model string
	opts  []option.RequestOption
}

// New builds a client for one model from configuration.
func New(cfg config.LLMConfig, model string) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if model == "" {
		return nil, errors.New("llm model is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{model: model, opts: opts}, nil
}

// Complete sends a system+user prompt pair and returns the raw completion.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	client := openai.NewClient(c.opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(user),
	}
	if system != "" {
		msgs = append([]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(system)}, msgs...)
	}

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
