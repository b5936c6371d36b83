package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/tieubaoca/query-retrieval/types"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type GeminiService struct {
	apiKeys    []string
	currentKey int
	modelName  string
	client     *genai.Client
	model      *genai.GenerativeModel
	logger     *zap.Logger
	mu         sync.Mutex
}

func NewGeminiService(ctx context.Context, apiKeys []string, modelName string, logger *zap.Logger) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}

	service := &GeminiService{
		apiKeys:   apiKeys,
		modelName: modelName,
		logger:    logger,
	}

	service.mu.Lock()
	defer service.mu.Unlock()
	if err := service.initClientLocked(ctx); err != nil {
		return nil, err
	}
	return service, nil
}

// initClientLocked must be called with mu held.
func (s *GeminiService) initClientLocked(ctx context.Context) error {
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return err
	}
	s.client = client
	s.model = client.GenerativeModel(s.modelName)
	return nil
}

// rotateAPIKey switches to the next key unless another caller already did.
func (s *GeminiService) rotateAPIKey(ctx context.Context, failed *genai.GenerativeModel) (*genai.GenerativeModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != failed {
		return s.model, nil
	}
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	if err := s.client.Close(); err != nil {
		s.logger.Warn("failed to close gemini client", zap.Error(err))
	}
	if err := s.initClientLocked(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("rotated gemini api key", zap.Int("key_index", s.currentKey))
	return s.model, nil
}

func (s *GeminiService) currentModel() *genai.GenerativeModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *GeminiService) Chat(ctx context.Context, prompt string, messages []types.Message) (string, error) {
	history := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		if role == types.RoleAssistant {
			role = types.RoleModel
		}
		history = append(history, &genai.Content{
			Parts: []genai.Part{genai.Text(msg.Content)},
			Role:  role,
		})
	}

	model := s.currentModel()
	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, genai.Text(prompt))
	if err != nil && len(s.apiKeys) > 1 {
		s.logger.Warn("gemini request failed, rotating api key", zap.Error(err))
		model, rerr := s.rotateAPIKey(ctx, model)
		if rerr != nil {
			return "", rerr
		}
		chat = model.StartChat()
		chat.History = history
		resp, err = chat.SendMessage(ctx, genai.Text(prompt))
	}
	if err != nil {
		return "", err
	}

	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no response generated")
	}
	var content strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content.WriteString(string(text))
			}
		}
	}
	return content.String(), nil
}

func (s *GeminiService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Close()
}
