package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tieubaoca/query-retrieval/database"
	"github.com/tieubaoca/query-retrieval/types"
	"go.uber.org/zap"
)

const manifestFile = "manifest.json"

// Manifest records what the knowledge base was built from.
type Manifest struct {
	Sources    []string `json:"sources"`
	ChunkCount int      `json:"chunk_count"`
	BuiltAt    int64    `json:"built_at"`
	Model      string   `json:"model"`
}

type QuerySystemConfig struct {
	CacheDir  string
	NResults  int
	ModelName string
}

// IntelligentQuerySystem retrieves chunks from the knowledge store and asks
// the generative model to answer from them.
type IntelligentQuerySystem struct {
	store     database.KnowledgeStore
	ai        AIService
	extractor DocumentExtractor
	config    QuerySystemConfig
	logger    *zap.Logger
}

func NewIntelligentQuerySystem(
	store database.KnowledgeStore,
	ai AIService,
	extractor DocumentExtractor,
	config QuerySystemConfig,
	logger *zap.Logger,
) *IntelligentQuerySystem {
	if config.NResults <= 0 {
		config.NResults = types.DefaultNResults
	}
	return &IntelligentQuerySystem{
		store:     store,
		ai:        ai,
		extractor: extractor,
		config:    config,
		logger:    logger,
	}
}

func (q *IntelligentQuerySystem) manifestPath() string {
	return filepath.Join(q.config.CacheDir, manifestFile)
}

// LoadKnowledgeBase succeeds only when a previous build left a manifest and
// the store still holds chunks.
func (q *IntelligentQuerySystem) LoadKnowledgeBase(ctx context.Context) error {
	manifest, err := q.readManifest()
	if err != nil {
		return err
	}

	count, err := q.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting stored chunks: %w", err)
	}
	if count == 0 {
		return types.NewDomainError(types.ErrorTypeNotFound, "knowledge store is empty", nil)
	}

	q.logger.Info("knowledge base loaded",
		zap.Int("chunks", count),
		zap.Int("sources", len(manifest.Sources)),
		zap.String("built_with", manifest.Model))
	return nil
}

func (q *IntelligentQuerySystem) readManifest() (*Manifest, error) {
	data, err := os.ReadFile(q.manifestPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, types.ErrKnowledgeBaseAbsent
		}
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	return &manifest, nil
}

// BuildKnowledgeBase replaces the stored chunks with those extracted from paths.
func (q *IntelligentQuerySystem) BuildKnowledgeBase(ctx context.Context, paths []string) error {
	if err := q.store.Reset(ctx); err != nil {
		return fmt.Errorf("resetting knowledge store: %w", err)
	}

	now := time.Now().Unix()
	var docs []types.Document
	var sources []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			q.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			continue
		}
		if !info.Mode().IsRegular() {
			q.logger.Warn("skipping non-regular file", zap.String("path", path))
			continue
		}

		chunks, err := q.extractor.ExtractChunks(ctx, path)
		if err != nil {
			q.logger.Warn("skipping document", zap.String("path", path), zap.Error(err))
			continue
		}
		if len(chunks) == 0 {
			continue
		}

		sources = append(sources, path)
		for _, chunk := range chunks {
			docs = append(docs, chunkDocument(chunk, now))
		}
		q.logger.Info("document processed", zap.String("path", path), zap.Int("chunks", len(chunks)))
	}

	if len(docs) == 0 {
		return fmt.Errorf("no text could be extracted from %d document(s)", len(paths))
	}

	if err := q.store.BatchInsertDocuments(ctx, docs); err != nil {
		return fmt.Errorf("inserting chunks: %w", err)
	}

	return q.writeManifest(Manifest{
		Sources:    sources,
		ChunkCount: len(docs),
		BuiltAt:    now,
		Model:      q.config.ModelName,
	})
}

func (q *IntelligentQuerySystem) writeManifest(manifest Manifest) error {
	if err := os.MkdirAll(q.config.CacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(q.manifestPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func chunkDocument(chunk types.DocumentChunk, createdAt int64) types.Document {
	return types.Document{
		Content: chunk.Content,
		Metadata: types.Metadata{
			Title:  chunk.Metadata.Title,
			Source: chunk.Metadata.Source,
			Custom: map[string]string{
				"page":  strconv.Itoa(chunk.Page),
				"chunk": strconv.Itoa(chunk.Metadata.ChunkIndex),
			},
		},
		CreatedAt: createdAt,
	}
}

// Query answers a single question. With nothing retrieved the model is
// still asked, so an empty knowledge base degrades rather than fails.
func (q *IntelligentQuerySystem) Query(ctx context.Context, question string) (*types.QueryResult, error) {
	sources, err := q.store.SearchSimilar(ctx, []string{question}, q.config.NResults)
	if err != nil {
		q.logger.Warn("retrieval failed, answering without context", zap.Error(err))
		sources = nil
	}

	answer, err := q.ai.Chat(ctx, buildPrompt(question, sources), nil)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &types.QueryResult{
		Answer:  strings.TrimSpace(answer),
		Sources: sources,
	}, nil
}

func buildPrompt(question string, sources []types.Document) string {
	var sb strings.Builder
	sb.WriteString("Answer the question using only the context below. ")
	sb.WriteString("If the context does not contain the answer, say that you don't know.\n\n")
	sb.WriteString("Context:\n")
	if len(sources) == 0 {
		sb.WriteString("(no relevant documents)\n")
	}
	for i, doc := range sources {
		fmt.Fprintf(&sb, "[%d] %s", i+1, doc.Metadata.Title)
		if page := doc.Metadata.Custom["page"]; page != "" && page != "0" {
			fmt.Fprintf(&sb, " (page %s)", page)
		}
		sb.WriteString(":\n")
		sb.WriteString(doc.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}
