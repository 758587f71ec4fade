package repositories

import "context"

// ChatCompletion abstracts any chat/LLM provider
type ChatCompletion interface {
	// Complete sends an ordered conversation and returns the model's reply
	// with token-usage accounting.
	Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (*Completion, error)
}

// CompletionOptions are provider-independent generation settings.
type CompletionOptions struct {
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
}

// Completion is the model's reply plus accounting.
type Completion struct {
	Text  string
	Model string
	Usage TokenUsage
}

// TokenUsage accounts for one completion call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatMessage represents a single message in a conversation
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role defines the type of message sender
type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)
