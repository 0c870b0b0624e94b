package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"chatbot-rag/internal/indexstore"
	"chatbot-rag/internal/models"
	"chatbot-rag/internal/namespace"
)

// stubEmbedder derives a deterministic vector from the text bytes, so equal
// texts embed identically without a provider.
type stubEmbedder struct {
	dim int
	err error
}

func (s stubEmbedder) vector(text string) []float32 {
	v := make([]float32, s.dim)
	for i := range v {
		v[i] = 1
	}
	for i, b := range []byte(text) {
		v[i%s.dim] += float32(b)
	}
	return v
}

func (s stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vector(t)
	}
	return out, nil
}

func (s stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vector(text), nil
}

type stubGenerator struct {
	reply      string
	err        error
	lastPrompt string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func testNS(t *testing.T) namespace.Namespace {
	t.Helper()
	ns, err := namespace.New("acme", "platform", "infra", "handbook")
	if err != nil {
		t.Fatalf("namespace.New: %v", err)
	}
	return ns
}

// buildIndex embeds the chunks with the stub embedder and writes them into
// the namespace's on-disk index.
func buildIndex(t *testing.T, dataDir string, ns namespace.Namespace, emb stubEmbedder, chunks []models.Chunk) {
	t.Helper()
	ix, err := indexstore.Create(ns.IndexDir(dataDir), emb.dim)
	if err != nil {
		t.Fatalf("Create index: %v", err)
	}
	if len(chunks) == 0 {
		return
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := emb.EmbedDocuments(context.Background(), texts)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if _, err := ix.Add(context.Background(), vectors, chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}
}

func TestBuildContext(t *testing.T) {
	retrieved := []models.RetrievedChunk{
		{Chunk: models.Chunk{Text: "First part.", Source: "doc.pdf", PageNumber: 3}},
		{Chunk: models.Chunk{Text: "Second part.", Source: "notes.txt"}},
	}
	got := BuildContext(retrieved)

	want := "[doc.pdf - Page 3]\nFirst part.\n\n[notes.txt]\nSecond part."
	if got != want {
		t.Fatalf("BuildContext = %q, want %q", got, want)
	}

	if BuildContext(nil) != "" {
		t.Fatal("empty retrieval must yield an empty context string")
	}
}

func TestAnswerEndToEnd(t *testing.T) {
	dataDir := t.TempDir()
	ns := testNS(t)
	emb := stubEmbedder{dim: 8}

	// One short document, chunk size larger than the text: exactly one chunk.
	buildIndex(t, dataDir, ns, emb, []models.Chunk{
		{Text: "The sky is blue. Grass is green.", Source: "facts.pdf", PageNumber: 1},
	})

	gen := &stubGenerator{reply: "  The sky is blue.  "}
	r := New(NewLocalSearcher(dataDir), emb, gen, 3)

	answer, err := r.Answer(context.Background(), ns, "What color is the sky?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer.Text != "The sky is blue." {
		t.Fatalf("answer = %q, want trimmed generation output", answer.Text)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("sources = %d, want 1", len(answer.Sources))
	}
	src := answer.Sources[0]
	if src.Document != "facts.pdf" || src.PageNumber != 1 || src.Text != "The sky is blue. Grass is green." {
		t.Fatalf("source = %+v", src)
	}

	if !strings.Contains(gen.lastPrompt, "[facts.pdf - Page 1]") {
		t.Fatalf("prompt missing context label:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "What color is the sky?") {
		t.Fatalf("prompt missing question:\n%s", gen.lastPrompt)
	}
}

func TestRetrieveRanksNearestFirst(t *testing.T) {
	dataDir := t.TempDir()
	ns := testNS(t)
	emb := stubEmbedder{dim: 8}

	buildIndex(t, dataDir, ns, emb, []models.Chunk{
		{Text: "The sky is blue.", Source: "facts.pdf", PageNumber: 1},
		{Text: "Completely unrelated text about databases and indexes.", Source: "facts.pdf", PageNumber: 2},
	})

	r := New(NewLocalSearcher(dataDir), emb, &stubGenerator{}, 3)
	results, err := r.Retrieve(context.Background(), ns, "The sky is blue.", 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	// The query text equals the first chunk, so it must be the nearest.
	if results[0].Chunk.ID != 0 {
		t.Fatalf("top chunk id = %d, want 0", results[0].Chunk.ID)
	}
}

func TestAnswerNamespaceNotFound(t *testing.T) {
	r := New(NewLocalSearcher(t.TempDir()), stubEmbedder{dim: 8}, &stubGenerator{}, 3)
	_, err := r.Answer(context.Background(), testNS(t), "Anything?")
	if !errors.Is(err, models.ErrNamespaceNotFound) {
		t.Fatalf("expected ErrNamespaceNotFound, got %v", err)
	}
}

func TestAnswerEmptyIndex(t *testing.T) {
	dataDir := t.TempDir()
	ns := testNS(t)
	emb := stubEmbedder{dim: 8}
	buildIndex(t, dataDir, ns, emb, nil)

	gen := &stubGenerator{reply: "I don't know."}
	r := New(NewLocalSearcher(dataDir), emb, gen, 3)

	answer, err := r.Answer(context.Background(), ns, "What color is the sky?")
	if err != nil {
		t.Fatalf("Answer on empty index: %v", err)
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("empty index must yield no sources, got %d", len(answer.Sources))
	}
}

func TestAnswerGenerationErrorPropagates(t *testing.T) {
	dataDir := t.TempDir()
	ns := testNS(t)
	emb := stubEmbedder{dim: 8}
	buildIndex(t, dataDir, ns, emb, []models.Chunk{
		{Text: "The sky is blue.", Source: "facts.pdf", PageNumber: 1},
	})

	genErr := fmt.Errorf("%w: provider unreachable", models.ErrGeneration)
	r := New(NewLocalSearcher(dataDir), emb, &stubGenerator{err: genErr}, 3)

	_, err := r.Answer(context.Background(), ns, "What color is the sky?")
	if !errors.Is(err, models.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}
