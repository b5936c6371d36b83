package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tieubaoca/query-retrieval/config"
	"github.com/tieubaoca/query-retrieval/types"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

const DOCUMENT_CLASS = "Document"

var documentFields = []graphql.Field{
	{Name: "content"},
	{Name: "title"},
	{Name: "source"},
	{Name: "tags"},
	{Name: "custom", Fields: []graphql.Field{{Name: "page"}, {Name: "chunk"}}},
	{Name: "createdAt"},
	{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}, {Name: "id"}}},
}

func newDocumentClass(cfg config.WeaviateStoreConfig) *models.Class {
	return &models.Class{
		Class: DOCUMENT_CLASS,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "tags", DataType: []string{"text[]"}},
			{Name: "custom", DataType: []string{"object"},
				NestedProperties: []*models.NestedProperty{
					{Name: "page", DataType: []string{"text"}},
					{Name: "chunk", DataType: []string{"text"}},
				},
			},
			{Name: "createdAt", DataType: []string{"int"}},
		},
		Vectorizer:      cfg.Text2Vec,
		ModuleConfig:    map[string]interface{}(cfg.ModuleConfig),
		VectorIndexType: "hnsw",
	}
}

type WeaviateStore struct {
	client *weaviate.Client
	class  *models.Class
}

func NewWeaviateStore(ctx context.Context, cfg config.WeaviateStoreConfig) (*WeaviateStore, error) {
	scheme := "http"
	if strings.HasPrefix(cfg.Host, "https://") {
		scheme = "https"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
		wcfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     cfg.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	s := &WeaviateStore{
		client: client,
		class:  newDocumentClass(cfg),
	}
	if err := s.ensureClass(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *WeaviateStore) ensureClass(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(DOCUMENT_CLASS).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.Schema().ClassCreator().WithClass(s.class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create Document class: %w", err)
	}
	return nil
}

func (s *WeaviateStore) Reset(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(DOCUMENT_CLASS).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %w", err)
	}
	if exists {
		if err := s.client.Schema().ClassDeleter().WithClassName(DOCUMENT_CLASS).Do(ctx); err != nil {
			return fmt.Errorf("failed to delete Document class: %w", err)
		}
	}
	if err := s.client.Schema().ClassCreator().WithClass(s.class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create Document class: %w", err)
	}
	return nil
}

func (s *WeaviateStore) BatchInsertDocuments(ctx context.Context, docs []types.Document) error {
	total := len(docs)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			batcher = batcher.WithObjects(&models.Object{
				Class:      DOCUMENT_CLASS,
				Properties: documentProperties(docs[j]),
			})
		}

		results, err := batcher.Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end, err)
		}
		for _, res := range results {
			if res.Result != nil && res.Result.Errors != nil && len(res.Result.Errors.Error) > 0 {
				return fmt.Errorf("failed to insert batch %d-%d: %s", i, end, res.Result.Errors.Error[0].Message)
			}
		}
	}

	return nil
}

func (s *WeaviateStore) Count(ctx context.Context) (int, error) {
	result, err := s.client.GraphQL().Aggregate().
		WithClassName(DOCUMENT_CLASS).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return 0, fmt.Errorf("count failed: %s", result.Errors[0].Message)
	}
	return parseAggregateCount(result.Data), nil
}

func (s *WeaviateStore) SearchSimilar(ctx context.Context, queries []string, limit int) ([]types.Document, error) {
	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts(queries)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(DOCUMENT_CLASS).
		WithFields(documentFields...).
		WithNearText(nearText)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search failed: %s", result.Errors[0].Message)
	}

	return parseDocuments(result.Data), nil
}

func documentProperties(doc types.Document) map[string]interface{} {
	return map[string]interface{}{
		"content":   doc.Content,
		"title":     doc.Metadata.Title,
		"source":    doc.Metadata.Source,
		"tags":      doc.Metadata.Tags,
		"custom":    doc.Metadata.Custom,
		"createdAt": doc.CreatedAt,
	}
}

func parseAggregateCount(data map[string]models.JSONObject) int {
	aggregate, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0
	}
	rows, ok := aggregate[DOCUMENT_CLASS].([]interface{})
	if !ok || len(rows) == 0 {
		return 0
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0
	}
	meta, ok := row["meta"].(map[string]interface{})
	if !ok {
		return 0
	}
	count, _ := meta["count"].(float64)
	return int(count)
}

func parseDocuments(data map[string]models.JSONObject) []types.Document {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	items, ok := get[DOCUMENT_CLASS].([]interface{})
	if !ok {
		return nil
	}

	docs := make([]types.Document, 0, len(items))
	for _, item := range items {
		doc, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		document := types.Document{
			Content: stringField(doc, "content"),
			Metadata: types.Metadata{
				Title:  stringField(doc, "title"),
				Source: stringField(doc, "source"),
				Tags:   parseStringArray(doc["tags"]),
				Custom: parseStringMap(doc["custom"]),
			},
		}
		if createdAt, ok := doc["createdAt"].(float64); ok {
			document.CreatedAt = int64(createdAt)
		}
		if additional, ok := doc["_additional"].(map[string]interface{}); ok {
			document.ID = stringField(additional, "id")
			if distance, ok := additional["distance"].(float64); ok {
				if document.Metadata.Custom == nil {
					document.Metadata.Custom = make(map[string]string)
				}
				document.Metadata.Custom["distance"] = strconv.FormatFloat(distance, 'f', 6, 64)
			}
		}
		docs = append(docs, document)
	}
	return docs
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func parseStringArray(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

func parseStringMap(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			result[k] = s
		}
	}
	return result
}
