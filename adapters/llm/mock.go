package llm

import (
	"context"
	"fmt"

	"github.com/febriansr/vocalis/domain/repositories"
)

// MockChat is a placeholder implementation for chat completion
type MockChat struct{}

// NewMockChat creates a new mock chat adapter
func NewMockChat() repositories.ChatCompletion {
	return &MockChat{}
}

// Complete echoes the newest user message back in a canned reply
func (m *MockChat) Complete(ctx context.Context, messages []repositories.ChatMessage, opts repositories.CompletionOptions) (*repositories.Completion, error) {
	var last string
	for _, msg := range messages {
		if msg.Role == repositories.UserRole {
			last = msg.Content
		}
	}

	var text string
	if last != "" {
		text = fmt.Sprintf("You said %q. Is there anything else I can help with?", last)
	} else {
		text = "Hello! What would you like to talk about?"
	}

	return &repositories.Completion{
		Text:  text,
		Model: "mock",
		Usage: repositories.TokenUsage{
			PromptTokens:     len(messages),
			CompletionTokens: 1,
			TotalTokens:      len(messages) + 1,
		},
	}, nil
}
