package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/query-retrieval/repository"
	"github.com/tieubaoca/query-retrieval/types"
)

// QueryHistory records answered batches.
type QueryHistory interface {
	Record(ctx context.Context, entry *types.QueryLog) error
	Recent(ctx context.Context, limit int64) ([]*types.QueryLog, error)
}

type queryHistory struct {
	repo repository.QueryLogRepo
}

func NewQueryHistory(repo repository.QueryLogRepo) QueryHistory {
	return &queryHistory{
		repo: repo,
	}
}

func (h *queryHistory) Record(ctx context.Context, entry *types.QueryLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}
	return h.repo.CreateQueryLog(ctx, entry)
}

func (h *queryHistory) Recent(ctx context.Context, limit int64) ([]*types.QueryLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return h.repo.ListRecent(ctx, limit)
}
