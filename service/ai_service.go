package service

import (
	"context"

	"github.com/tieubaoca/query-retrieval/types"
)

// AIService generates a reply to prompt, given optional prior messages.
type AIService interface {
	Chat(ctx context.Context, prompt string, messages []types.Message) (string, error)
}
