// Package db is the optional postgres/pgvector storage backend. It mirrors
// the on-disk index contract keyed by the same namespace tuple, so retrieval
// can be served from a shared database instead of the local data directory.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"chatbot-rag/internal/config"
	"chatbot-rag/internal/models"
	"chatbot-rag/internal/namespace"
)

type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Company       string    `bun:"company,notnull"`
	Team          string    `bun:"team,notnull"`
	Part          string    `bun:"part,notnull"`
	Chatbot       string    `bun:"chatbot,notnull"`
	ChunkID       int       `bun:"chunk_id,notnull"`
	Content       string    `bun:"content,notnull"`
	Source        string    `bun:"source,notnull"`
	PageNumber    int       `bun:"page_number"`
	Locator       string    `bun:"locator"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(384)"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Key))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	_, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

func StoreDocuments(ctx context.Context, db *bun.DB, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&docs).Exec(ctx)
	return err
}

// SearchDocuments returns the namespace's nearest documents by embedding
// distance, closest first.
func SearchDocuments(ctx context.Context, db *bun.DB, ns namespace.Namespace, queryEmbedding []float32, limit int) ([]Document, error) {
	var docs []Document
	err := db.NewSelect().
		Model(&docs).
		Where("company = ?", ns.Company).
		Where("team = ?", ns.Team).
		Where("part = ?", ns.Part).
		Where("chatbot = ?", ns.Name).
		OrderExpr("embedding <-> ?", queryEmbedding).
		Limit(limit).
		Scan(ctx)
	return docs, err
}

// DropDocuments deletes a namespace's stored documents, the database
// equivalent of removing the namespace directory.
func DropDocuments(ctx context.Context, db *bun.DB, ns namespace.Namespace) error {
	_, err := db.NewDelete().
		Model((*Document)(nil)).
		Where("company = ?", ns.Company).
		Where("team = ?", ns.Team).
		Where("part = ?", ns.Part).
		Where("chatbot = ?", ns.Name).
		Exec(ctx)
	return err
}

// Searcher serves retrieval out of the documents table. Satisfies rag.Searcher.
type Searcher struct {
	db *bun.DB
}

func NewSearcher(db *bun.DB) *Searcher {
	return &Searcher{db: db}
}

func (s *Searcher) Search(ctx context.Context, ns namespace.Namespace, queryVector []float32, k int) ([]models.RetrievedChunk, error) {
	docs, err := SearchDocuments(ctx, s.db, ns, queryVector, k)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrNamespaceNotFound, ns)
	}

	retrieved := make([]models.RetrievedChunk, 0, len(docs))
	for i, doc := range docs {
		retrieved = append(retrieved, models.RetrievedChunk{
			Chunk: models.Chunk{
				ID:         doc.ChunkID,
				Text:       doc.Content,
				Source:     doc.Source,
				PageNumber: doc.PageNumber,
				Locator:    doc.Locator,
			},
			// Rank-derived stand-in: pgvector's operator orders by distance
			// but the raw distance is not selected here.
			Score: 1 - float32(i)/float32(len(docs)),
		})
	}
	return retrieved, nil
}
