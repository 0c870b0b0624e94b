// Package rag turns a user question into a grounded answer: retrieve the
// nearest chunks for the chatbot's namespace, assemble them into a cited
// context and condition generation on it.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"chatbot-rag/internal/embedding"
	"chatbot-rag/internal/llmservice"
	"chatbot-rag/internal/models"
	"chatbot-rag/internal/namespace"
)

// Searcher finds the k nearest chunks for a query vector within one
// namespace. The local index store and the postgres backend both satisfy it.
type Searcher interface {
	Search(ctx context.Context, ns namespace.Namespace, queryVector []float32, k int) ([]models.RetrievedChunk, error)
}

type RAG struct {
	searcher  Searcher
	embedder  embedding.Embedder
	generator llmservice.Generator
	topK      int
}

func New(searcher Searcher, embedder embedding.Embedder, generator llmservice.Generator, topK int) *RAG {
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	return &RAG{searcher: searcher, embedder: embedder, generator: generator, topK: topK}
}

// Retrieve embeds the query and returns the top-k chunks with scores, best
// first. A namespace that has never been trained fails with
// models.ErrNamespaceNotFound; a trained but empty index returns an empty
// result.
func (r *RAG) Retrieve(ctx context.Context, ns namespace.Namespace, query string, k int) ([]models.RetrievedChunk, error) {
	if k <= 0 {
		k = r.topK
	}
	queryVector, err := embedding.EmbedQuery(ctx, r.embedder, query)
	if err != nil {
		return nil, err
	}
	return r.searcher.Search(ctx, ns, queryVector, k)
}

// Answer retrieves the top chunks for the question and asks the generator for
// a concise answer grounded only in them. The sources mirror the retrieved
// chunks in order.
func (r *RAG) Answer(ctx context.Context, ns namespace.Namespace, question string) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	retrieved, err := r.Retrieve(ctx, ns, question, r.topK)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("namespace", ns.String()).Int("chunks", len(retrieved)).Msg("Retrieved context")

	prompt := fmt.Sprintf(models.AnswerPromptTemplate, BuildContext(retrieved), question)
	text, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	sources := make([]models.Source, 0, len(retrieved))
	for _, rc := range retrieved {
		sources = append(sources, models.Source{
			Document:   rc.Chunk.Source,
			PageNumber: rc.Chunk.PageNumber,
			Text:       rc.Chunk.Text,
			Locator:    rc.Chunk.Locator,
		})
	}

	return &models.Answer{Text: strings.TrimSpace(text), Sources: sources}, nil
}

// BuildContext concatenates retrieved chunk texts, each labeled with its
// source document and 1-based page number so the model can cite them. Chunks
// without a page carry the source name alone. An empty retrieval yields an
// empty string.
func BuildContext(retrieved []models.RetrievedChunk) string {
	parts := make([]string, 0, len(retrieved))
	for _, rc := range retrieved {
		if rc.Chunk.PageNumber > 0 {
			parts = append(parts, fmt.Sprintf("[%s - Page %d]\n%s", rc.Chunk.Source, rc.Chunk.PageNumber, rc.Chunk.Text))
		} else {
			parts = append(parts, fmt.Sprintf("[%s]\n%s", rc.Chunk.Source, rc.Chunk.Text))
		}
	}
	return strings.Join(parts, "\n\n")
}
