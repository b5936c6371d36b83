package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tieubaoca/query-retrieval/types"
)

func TestQueryHistory_Record(t *testing.T) {
	repo := new(MockQueryLogRepo)
	repo.On("CreateQueryLog", mock.Anything, mock.MatchedBy(func(entry *types.QueryLog) bool {
		return entry.ID != "" && entry.CreatedAt > 0 && entry.RequestID == "req-1"
	})).Return(nil)

	err := NewQueryHistory(repo).Record(context.Background(), &types.QueryLog{
		RequestID: "req-1",
		Questions: []string{"q"},
		Answers:   []string{"a"},
	})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestQueryHistory_RecordKeepsExistingID(t *testing.T) {
	repo := new(MockQueryLogRepo)
	repo.On("CreateQueryLog", mock.Anything, mock.Anything).Return(errors.New("write failed"))

	entry := &types.QueryLog{ID: "fixed", CreatedAt: 42}
	err := NewQueryHistory(repo).Record(context.Background(), entry)

	assert.EqualError(t, err, "write failed")
	assert.Equal(t, "fixed", entry.ID)
	assert.Equal(t, int64(42), entry.CreatedAt)
}

func TestQueryHistory_RecentDefaultsLimit(t *testing.T) {
	repo := new(MockQueryLogRepo)
	logs := []*types.QueryLog{{ID: "1"}}
	repo.On("ListRecent", mock.Anything, int64(20)).Return(logs, nil)

	got, err := NewQueryHistory(repo).Recent(context.Background(), 0)

	assert.NoError(t, err)
	assert.Equal(t, logs, got)
}
