package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tieubaoca/query-retrieval/types"
)

type MockQueryEngine struct {
	mock.Mock
}

func (m *MockQueryEngine) LoadKnowledgeBase(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockQueryEngine) BuildKnowledgeBase(ctx context.Context, paths []string) error {
	return m.Called(ctx, paths).Error(0)
}

func (m *MockQueryEngine) Query(ctx context.Context, question string) (*types.QueryResult, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.QueryResult), args.Error(1)
}

type MockKnowledgeStore struct {
	mock.Mock
}

func (m *MockKnowledgeStore) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockKnowledgeStore) BatchInsertDocuments(ctx context.Context, docs []types.Document) error {
	return m.Called(ctx, docs).Error(0)
}

func (m *MockKnowledgeStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockKnowledgeStore) SearchSimilar(ctx context.Context, queries []string, limit int) ([]types.Document, error) {
	args := m.Called(ctx, queries, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Document), args.Error(1)
}

type MockAIService struct {
	mock.Mock
}

func (m *MockAIService) Chat(ctx context.Context, prompt string, messages []types.Message) (string, error) {
	args := m.Called(ctx, prompt, messages)
	return args.String(0), args.Error(1)
}

type MockQueryLogRepo struct {
	mock.Mock
}

func (m *MockQueryLogRepo) CreateQueryLog(ctx context.Context, entry *types.QueryLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockQueryLogRepo) ListRecent(ctx context.Context, limit int64) ([]*types.QueryLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.QueryLog), args.Error(1)
}
