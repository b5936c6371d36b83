package service

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/tieubaoca/query-retrieval/types"
)

var (
	SystemMessageDocumentAssistant = openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: "You answer questions about the user's documents. Use only the supplied context and say so when the context does not contain the answer.",
	}
)

type OpenAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService(baseURL string, apiKey, model string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIService{
		client: client,
		model:  model,
	}
}

func (s *OpenAIService) Chat(ctx context.Context, prompt string, messages []types.Message) (string, error) {
	openaiMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+2)
	openaiMessages = append(openaiMessages, SystemMessageDocumentAssistant)
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == types.RoleAssistant || msg.Role == types.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Messages: openaiMessages,
			Model:    s.model,
		},
	)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response generated")
	}

	return resp.Choices[0].Message.Content, nil
}
