package cmd

import (
	"context"
	"fmt"

	"github.com/tieubaoca/query-retrieval/config"
	"github.com/tieubaoca/query-retrieval/database"
	"github.com/tieubaoca/query-retrieval/repository"
	"github.com/tieubaoca/query-retrieval/service"
	"github.com/tieubaoca/query-retrieval/types"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

const queryLogCollection = "query_logs"

// app holds the long-lived collaborators built from configuration.
type app struct {
	engine  *service.IntelligentQuerySystem
	history service.QueryHistory
	closers []func(context.Context) error
}

func newAIService(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (service.AIService, func(context.Context) error, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return service.NewOpenAIService(cfg.Endpoint, cfg.OpenAIAPIKey, cfg.Model), nil, nil
	case config.ProviderGemini:
		gemini, err := service.NewGeminiService(ctx, cfg.GoogleAPIKeys(), cfg.Model, logger)
		if err != nil {
			return nil, nil, err
		}
		return gemini, func(context.Context) error { return gemini.Close() }, nil
	default:
		return nil, nil, types.NewConfigurationError("unsupported ai provider %q", cfg.Provider)
	}
}

// newApp wires the engine and, when configured, the query history.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, withHistory bool) (*app, error) {
	a := &app{}

	aiService, closeAI, err := newAIService(ctx, cfg.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generative model: %w", err)
	}
	if closeAI != nil {
		a.closers = append(a.closers, closeAI)
	}

	store, err := database.NewWeaviateStore(ctx, cfg.Weaviate)
	if err != nil {
		a.close(ctx, logger)
		return nil, fmt.Errorf("failed to connect to Weaviate database: %w", err)
	}

	documentService := service.NewDocumentService(types.DocumentServiceConfig{
		MaxChunkSize: cfg.KnowledgeBase.MaxChunkSize,
		OverlapSize:  cfg.KnowledgeBase.OverlapSize,
	}, logger)

	a.engine = service.NewIntelligentQuerySystem(store, aiService, documentService,
		service.QuerySystemConfig{
			CacheDir:  cfg.KnowledgeBase.CacheDir,
			NResults:  cfg.KnowledgeBase.NResults,
			ModelName: cfg.AI.Model,
		}, logger)

	if withHistory && cfg.History.Enabled() {
		client, err := database.NewMongoClient(ctx, cfg.History.MongoDBURI)
		if err != nil {
			a.close(ctx, logger)
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		a.history = newHistory(client, cfg.History.Database)
		logger.Info("query history enabled", zap.String("database", cfg.History.Database))
	}

	return a, nil
}

func newHistory(client *mongo.Client, dbName string) service.QueryHistory {
	collection := client.Database(dbName).Collection(queryLogCollection)
	return service.NewQueryHistory(repository.NewQueryLogRepo(collection))
}

func (a *app) close(ctx context.Context, logger *zap.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("failed to release resource", zap.Error(err))
		}
	}
}
