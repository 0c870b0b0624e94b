package rag

import (
	"context"
	"errors"
	"fmt"

	"chatbot-rag/internal/indexstore"
	"chatbot-rag/internal/models"
	"chatbot-rag/internal/namespace"
)

// LocalSearcher serves retrieval from the on-disk index of each namespace.
// Every search reloads the index from disk: the index directory is the single
// source of truth and reads need no cache invalidation.
type LocalSearcher struct {
	DataDir string
}

func NewLocalSearcher(dataDir string) *LocalSearcher {
	return &LocalSearcher{DataDir: dataDir}
}

func (s *LocalSearcher) Search(ctx context.Context, ns namespace.Namespace, queryVector []float32, k int) ([]models.RetrievedChunk, error) {
	ix, err := indexstore.Load(ns.IndexDir(s.DataDir), len(queryVector))
	if err != nil {
		if errors.Is(err, models.ErrIndexNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrNamespaceNotFound, ns)
		}
		return nil, err
	}
	return ix.Search(ctx, queryVector, k)
}
