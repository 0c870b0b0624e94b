// Package llmservice wraps the external text generation capability.
package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"chatbot-rag/internal/config"
	"chatbot-rag/internal/models"
)

// Generator turns a prompt into text. Implementations are possibly slow
// external calls; Generate applies the configured timeout around them.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client calls the configured chat model through langchaingo.
type Client struct {
	llm     llms.Model
	timeout time.Duration
}

// NewClient builds a generation client for the configured provider, with a
// timeout applied to every call so a stalled provider cannot hang a request
// indefinitely.
func NewClient(llmConfig *config.LLMConfig, timeout time.Duration) (*Client, error) {
	var (
		llm llms.Model
		err error
	)
	switch llmConfig.Provider {
	case "ollama":
		llm, err = ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
	default:
		llm, err = openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inference LLM: %w", err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{llm: llm, timeout: timeout}, nil
}

// Generate runs one prompt and returns the model's text. Deadline overruns
// surface as models.ErrGenerationTimeout, everything else as
// models.ErrGeneration; neither is retried here.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	start := time.Now()
	res, err := c.llm.GenerateContent(ctx, messages)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", models.ErrGenerationTimeout, c.timeout)
		}
		return "", fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", models.ErrGeneration)
	}
	log.Debug().Dur("took", time.Since(start)).Msg("Generated content")
	return res.Choices[0].Content, nil
}
