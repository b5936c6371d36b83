package service

import (
	"context"

	"github.com/tieubaoca/query-retrieval/types"
)

// KnowledgeBaseBuilder is the part of a query engine the bootstrapper needs.
type KnowledgeBaseBuilder interface {
	LoadKnowledgeBase(ctx context.Context) error
	BuildKnowledgeBase(ctx context.Context, paths []string) error
}

// QueryEngine answers one question at a time. A single instance is shared by
// every request, so implementations must be safe for concurrent Query calls.
type QueryEngine interface {
	KnowledgeBaseBuilder
	Query(ctx context.Context, question string) (*types.QueryResult, error)
}

// DocumentExtractor turns one file into chunks ready for indexing.
type DocumentExtractor interface {
	ExtractChunks(ctx context.Context, path string) ([]types.DocumentChunk, error)
}
