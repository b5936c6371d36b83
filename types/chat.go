package types

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleModel     = "model"
)

// Message represents a single message in the conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
