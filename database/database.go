package database

import (
	"context"

	"github.com/tieubaoca/query-retrieval/types"
)

// KnowledgeStore persists document chunks and serves similarity search
// over them. Implementations must be safe for concurrent use.
type KnowledgeStore interface {
	// Reset drops every stored chunk and recreates an empty collection.
	Reset(ctx context.Context) error
	BatchInsertDocuments(ctx context.Context, docs []types.Document) error
	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
	SearchSimilar(ctx context.Context, queries []string, limit int) ([]types.Document, error)
}
