// Package quiz generates multiple-choice questions from a chatbot's indexed
// content and maintains the per-namespace quiz collection.
//
// Generation output is an untrusted boundary: the model's response is parsed
// and validated strictly, and anything off-shape fails with
// models.ErrMalformedGeneration rather than letting partially valid items
// through.
package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"chatbot-rag/internal/llmservice"
	"chatbot-rag/internal/models"
	"chatbot-rag/internal/namespace"
	"chatbot-rag/internal/rag"
)

type Synthesizer struct {
	rag       *rag.RAG
	generator llmservice.Generator
}

func NewSynthesizer(r *rag.RAG, generator llmservice.Generator) *Synthesizer {
	return &Synthesizer{rag: r, generator: generator}
}

// Generate produces n validated quiz items from the namespace's content. The
// retrieval query aims at broad coverage rather than a targeted lookup. Item
// ids stay zero; the store assigns them on append.
func (s *Synthesizer) Generate(ctx context.Context, ns namespace.Namespace, n int) ([]models.QuizItem, error) {
	if n <= 0 {
		return nil, fmt.Errorf("number of questions must be positive, got %d", n)
	}

	retrieved, err := s.rag.Retrieve(ctx, ns, models.QuizCoverageQuery, models.DefaultTopK)
	if err != nil {
		return nil, err
	}

	var quizContext strings.Builder
	for _, rc := range retrieved {
		quizContext.WriteString(rc.Chunk.Text)
		quizContext.WriteString("\n\n")
	}

	prompt := fmt.Sprintf(models.QuizPromptTemplate, n, quizContext.String())
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	items, err := ParseItems(raw, n)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ParseItems parses and validates the generator's response: strip any code
// fence the model wrapped the output in, decode the JSON array, then require
// exactly n items with exactly 4 choices and an answer index in [0,3].
func ParseItems(raw string, n int) ([]models.QuizItem, error) {
	cleaned := StripCodeFence(raw)

	var payload []struct {
		Question    string   `json:"question"`
		Choices     []string `json:"choices"`
		AnswerIndex int      `json:"answer_index"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		log.Debug().Str("raw", raw).Str("cleaned", cleaned).Err(err).Msg("Quiz response did not parse")
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedGeneration, err)
	}

	if len(payload) != n {
		log.Debug().Str("raw", raw).Int("want", n).Int("got", len(payload)).Msg("Quiz response had wrong item count")
		return nil, fmt.Errorf("%w: expected %d items, got %d", models.ErrMalformedGeneration, n, len(payload))
	}

	items := make([]models.QuizItem, 0, n)
	for i, p := range payload {
		if strings.TrimSpace(p.Question) == "" {
			return nil, fmt.Errorf("%w: item %d has no question", models.ErrMalformedGeneration, i)
		}
		if len(p.Choices) != 4 {
			return nil, fmt.Errorf("%w: item %d has %d choices", models.ErrMalformedGeneration, i, len(p.Choices))
		}
		if p.AnswerIndex < 0 || p.AnswerIndex > 3 {
			return nil, fmt.Errorf("%w: item %d answer index %d out of range", models.ErrMalformedGeneration, i, p.AnswerIndex)
		}
		items = append(items, models.QuizItem{
			Question:    strings.TrimSpace(p.Question),
			Choices:     p.Choices,
			AnswerIndex: p.AnswerIndex,
		})
	}
	return items, nil
}

// StripCodeFence removes a surrounding markdown code fence, with or without a
// language tag, and returns the trimmed inner text.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
