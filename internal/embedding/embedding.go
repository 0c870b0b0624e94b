// Package embedding wraps the external embedding capability. Providers are
// reached through langchaingo; the rest of the pipeline only sees the
// Embedder interface and models.ErrEmbedding.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"chatbot-rag/internal/config"
	"chatbot-rag/internal/models"
)

// Embedder maps texts to fixed-dimension vectors, order-preserving, one
// vector per input.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder builds an embedder for the configured provider.
func NewEmbedder(llmConfig *config.LLMConfig) (Embedder, error) {
	switch llmConfig.Provider {
	case "ollama":
		return newOllamaEmbedder(llmConfig)
	default:
		return newOpenAIEmbedder(llmConfig)
	}
}

func newOpenAIEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

func newOllamaEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(llmConfig.BaseURL),
		ollama.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedTexts embeds a batch of chunk texts. A provider failure fails the
// whole batch loudly; there is no empty-vector fallback, since a fabricated
// vector would poison the index.
func EmbedTexts(ctx context.Context, embedder Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbedding, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: provider returned %d vectors for %d texts",
			models.ErrEmbedding, len(vectors), len(texts))
	}
	log.Debug().Int("texts", len(texts)).Int("dimension", len(vectors[0])).Msg("Embedded batch")
	return vectors, nil
}

// EmbedQuery embeds a single retrieval query.
func EmbedQuery(ctx context.Context, embedder Embedder, query string) ([]float32, error) {
	vector, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbedding, err)
	}
	return vector, nil
}
