// Package indexstore persists one append-only vector index per chatbot
// namespace, backed by chromem-go. Similarity is cosine, chromem's native
// metric, which matches normalized text embeddings.
//
// Next to the chromem data a small manifest records the embedding dimension
// the index was created with. Loading with a different dimension fails with
// models.ErrDimensionMismatch so a changed embedding model forces a rebuild
// instead of silently corrupting search results.
package indexstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"chatbot-rag/internal/models"
)

const (
	collectionName = "chunks"
	manifestFile   = "manifest.json"
	compress       = false
)

type manifest struct {
	Dimension int `json:"dimension"`
	Chunks    int `json:"chunks"`
}

// Index is one namespace's vector index. Chunk ids equal append order; there
// is no delete or compaction. Not safe for concurrent writers; callers hold
// the namespace lock around mutation.
type Index struct {
	dir        string
	dimension  int
	size       int
	db         *chromem.DB
	collection *chromem.Collection
}

// Create makes an empty index typed to a fixed vector dimension.
func Create(dir string, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	ix := &Index{dir: dir, dimension: dimension}
	if err := ix.open(); err != nil {
		return nil, err
	}
	if err := ix.Persist(); err != nil {
		return nil, err
	}
	return ix, nil
}

// Load opens an existing index. expectDim > 0 asserts the caller's embedding
// dimension; a disagreement is a rebuild-required condition, not a crash.
func Load(dir string, expectDim int) (*Index, error) {
	m, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	if expectDim > 0 && m.Dimension != expectDim {
		return nil, fmt.Errorf("%w: index has %d, embedder produces %d",
			models.ErrDimensionMismatch, m.Dimension, expectDim)
	}
	ix := &Index{dir: dir, dimension: m.Dimension}
	if err := ix.open(); err != nil {
		return nil, err
	}
	return ix, nil
}

// LoadOrCreate opens the namespace's index, creating an empty one when none
// exists and rebuilding from scratch when the dimension changed. Used by the
// training path, where append-or-recreate is the contract.
func LoadOrCreate(dir string, dimension int) (*Index, bool, error) {
	ix, err := Load(dir, dimension)
	switch {
	case err == nil:
		return ix, false, nil
	case errors.Is(err, models.ErrIndexNotFound):
		ix, err = Create(dir, dimension)
		return ix, false, err
	case errors.Is(err, models.ErrDimensionMismatch):
		if err := os.RemoveAll(dir); err != nil {
			return nil, false, fmt.Errorf("failed to clear stale index: %w", err)
		}
		ix, err = Create(dir, dimension)
		return ix, true, err
	default:
		return nil, false, err
	}
}

func (ix *Index) open() error {
	db, err := chromem.NewPersistentDB(ix.dir, compress)
	if err != nil {
		return fmt.Errorf("failed to open vector database: %w", err)
	}
	// The embedding func is never invoked: documents arrive with vectors and
	// queries carry a query embedding.
	c, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}
	ix.db = db
	ix.collection = c
	ix.size = c.Count()
	return nil
}

func (ix *Index) Dimension() int { return ix.dimension }

func (ix *Index) Size() int { return ix.size }

// Add appends vectors and their chunks in corresponding order. Chunk ids are
// assigned sequentially continuing from the current size. The returned slice
// carries the assigned ids.
func (ix *Index) Add(ctx context.Context, vectors [][]float32, chunks []models.Chunk) ([]models.Chunk, error) {
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("vectors and chunks length mismatch: %d vs %d", len(vectors), len(chunks))
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	for _, v := range vectors {
		if len(v) != ix.dimension {
			return nil, fmt.Errorf("%w: index has %d, vector has %d",
				models.ErrDimensionMismatch, ix.dimension, len(v))
		}
	}

	docs := make([]chromem.Document, len(chunks))
	assigned := make([]models.Chunk, len(chunks))
	for i, chunk := range chunks {
		chunk.ID = ix.size + i
		assigned[i] = chunk
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(chunk.ID),
			Content:   chunk.Text,
			Metadata:  chunkMetadata(chunk),
			Embedding: vectors[i],
		}
	}

	if err := ix.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}
	ix.size += len(chunks)
	if err := ix.Persist(); err != nil {
		return nil, err
	}
	return assigned, nil
}

// Search returns the k nearest chunks by cosine similarity, best first. An
// empty index returns an empty result; k is clamped to the index size.
func (ix *Index) Search(ctx context.Context, queryVector []float32, k int) ([]models.RetrievedChunk, error) {
	if len(queryVector) != ix.dimension {
		return nil, fmt.Errorf("%w: index has %d, query has %d",
			models.ErrDimensionMismatch, ix.dimension, len(queryVector))
	}
	if ix.size == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = models.DefaultTopK
	}
	if k > ix.size {
		k = ix.size
	}

	results, err := ix.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryVector,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	retrieved := make([]models.RetrievedChunk, 0, len(results))
	for _, res := range results {
		chunk, err := chunkFromResult(res)
		if err != nil {
			return nil, err
		}
		retrieved = append(retrieved, models.RetrievedChunk{Chunk: chunk, Score: res.Similarity})
	}
	return retrieved, nil
}

// Persist writes the manifest via a temp file and rename so a crash never
// leaves a half-written manifest. Chunk data itself is persisted by chromem
// as documents are added.
func (ix *Index) Persist() error {
	m := manifest{Dimension: ix.dimension, Chunks: ix.size}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(ix.dir, manifestFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace manifest: %w", err)
	}
	return nil
}

func readManifest(dir string) (manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return manifest{}, fmt.Errorf("%w: %s", models.ErrIndexNotFound, dir)
		}
		return manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return manifest{}, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return m, nil
}

func chunkMetadata(chunk models.Chunk) map[string]string {
	md := map[string]string{
		"source": chunk.Source,
	}
	if chunk.PageNumber > 0 {
		md["page"] = strconv.Itoa(chunk.PageNumber)
	}
	if chunk.CharEnd > chunk.CharStart {
		md["char_start"] = strconv.Itoa(chunk.CharStart)
		md["char_end"] = strconv.Itoa(chunk.CharEnd)
	}
	if chunk.Locator != "" {
		md["locator"] = chunk.Locator
	}
	return md
}

func chunkFromResult(res chromem.Result) (models.Chunk, error) {
	id, err := strconv.Atoi(res.ID)
	if err != nil {
		return models.Chunk{}, fmt.Errorf("unexpected document id %q: %w", res.ID, err)
	}
	chunk := models.Chunk{
		ID:      id,
		Text:    res.Content,
		Source:  res.Metadata["source"],
		Locator: res.Metadata["locator"],
	}
	if page, err := strconv.Atoi(res.Metadata["page"]); err == nil {
		chunk.PageNumber = page
	}
	if start, err := strconv.Atoi(res.Metadata["char_start"]); err == nil {
		chunk.CharStart = start
	}
	if end, err := strconv.Atoi(res.Metadata["char_end"]); err == nil {
		chunk.CharEnd = end
	}
	return chunk, nil
}
