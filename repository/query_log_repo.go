package repository

import (
	"context"

	"github.com/tieubaoca/query-retrieval/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type QueryLogRepo interface {
	CreateQueryLog(ctx context.Context, entry *types.QueryLog) error
	ListRecent(ctx context.Context, limit int64) ([]*types.QueryLog, error)
}

type queryLogRepo struct {
	collection *mongo.Collection
}

func NewQueryLogRepo(collection *mongo.Collection) QueryLogRepo {
	return &queryLogRepo{
		collection: collection,
	}
}

func (r *queryLogRepo) CreateQueryLog(ctx context.Context, entry *types.QueryLog) error {
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *queryLogRepo) ListRecent(ctx context.Context, limit int64) ([]*types.QueryLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*types.QueryLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
