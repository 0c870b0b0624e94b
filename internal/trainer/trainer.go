// Package trainer builds a namespace's vector index from uploaded documents:
// parse into pages, window into chunks, embed, append to the index. The
// uploaded file is retained under the namespace so citations can point back
// at it.
package trainer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"

	"chatbot-rag/internal/chunker"
	"chatbot-rag/internal/embedding"
	"chatbot-rag/internal/indexstore"
	"chatbot-rag/internal/models"
	"chatbot-rag/internal/namespace"
	"chatbot-rag/internal/parser"
)

type Trainer struct {
	dataDir  string
	chunker  *chunker.Chunker
	embedder embedding.Embedder
}

// Result reports what one training batch did.
type Result struct {
	Trained []string // documents indexed
	Skipped []string // documents skipped because they could not be parsed
	Chunks  int      // chunks appended across the batch
	Rebuilt bool     // index was recreated because the embedding dimension changed
}

func New(dataDir string, ck *chunker.Chunker, embedder embedding.Embedder) *Trainer {
	return &Trainer{dataDir: dataDir, chunker: ck, embedder: embedder}
}

// Train ingests a batch of documents into the namespace's index. A document
// that cannot be parsed is logged and skipped without failing the batch; an
// embedding failure aborts the batch, since continuing would index nothing
// useful. Index mutation happens under the namespace lock: a second upload
// into the same chatbot appends rather than racing or replacing.
func (t *Trainer) Train(ctx context.Context, ns namespace.Namespace, filePaths []string) (*Result, error) {
	if len(filePaths) == 0 {
		return nil, fmt.Errorf("no documents to train on")
	}

	result := &Result{}

	type docBatch struct {
		chunks  []models.Chunk
		vectors [][]float32
	}
	var batches []docBatch

	for _, filePath := range filePaths {
		pages, err := parser.Parse(filePath)
		if err != nil {
			log.Warn().Err(err).Str("file", filePath).Msg("Skipping document")
			result.Skipped = append(result.Skipped, filepath.Base(filePath))
			continue
		}

		stored, err := t.retain(ns, filePath)
		if err != nil {
			return nil, err
		}

		chunks := t.chunker.Chunk(filepath.Base(filePath), pages)
		if len(chunks) == 0 {
			log.Warn().Str("file", filePath).Msg("Document produced no chunks, skipping")
			result.Skipped = append(result.Skipped, filepath.Base(filePath))
			continue
		}
		for i := range chunks {
			chunks[i].Locator = stored
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors, err := embedding.EmbedTexts(ctx, t.embedder, texts)
		if err != nil {
			return nil, err
		}

		batches = append(batches, docBatch{chunks: chunks, vectors: vectors})
		result.Trained = append(result.Trained, filepath.Base(filePath))
		result.Chunks += len(chunks)
	}

	if len(batches) == 0 {
		return result, nil
	}

	dimension := len(batches[0].vectors[0])

	if err := os.MkdirAll(ns.Dir(t.dataDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create namespace directory: %w", err)
	}
	lock := flock.New(ns.LockFile(t.dataDir))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock namespace: %w", err)
	}
	defer lock.Unlock()

	ix, rebuilt, err := indexstore.LoadOrCreate(ns.IndexDir(t.dataDir), dimension)
	if err != nil {
		return nil, err
	}
	result.Rebuilt = rebuilt
	if rebuilt {
		log.Warn().Str("namespace", ns.String()).Msg("Embedding dimension changed, index rebuilt")
	}

	for _, b := range batches {
		if _, err := ix.Add(ctx, b.vectors, b.chunks); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("namespace", ns.String()).
		Int("documents", len(result.Trained)).
		Int("chunks", result.Chunks).
		Int("index_size", ix.Size()).
		Msg("Training complete")
	return result, nil
}

// retain copies the uploaded document into the namespace's pdf directory and
// returns the stored path, used as the chunks' locator.
func (t *Trainer) retain(ns namespace.Namespace, filePath string) (string, error) {
	dir := ns.PDFDir(t.dataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create pdf directory: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(filePath))
	if dst == filePath {
		return dst, nil
	}

	src, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to store document: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("failed to store document: %w", err)
	}
	return dst, nil
}

// DeleteNamespace removes a chatbot's entire tree: index, retained documents
// and quiz collection. This is the only way stored chunks are ever deleted.
func DeleteNamespace(dataDir string, ns namespace.Namespace) error {
	dir := ns.Dir(dataDir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", models.ErrNamespaceNotFound, ns)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete namespace: %w", err)
	}
	log.Info().Str("namespace", ns.String()).Msg("Namespace deleted")
	return nil
}
