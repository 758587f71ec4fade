package llm

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/febriansr/vocalis/domain/repositories"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiChat implements ChatCompletion using Google's Gemini API
type GeminiChat struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.ChatCompletion = (*GeminiChat)(nil)

// NewGeminiChat creates a new Gemini chat adapter. The API key comes from
// the GEMINI_API_KEY environment variable.
func NewGeminiChat(ctx context.Context, model string, logger *zap.Logger) (*GeminiChat, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = defaultGeminiModel
		logger.Info("Using default chat model", zap.String("model", model))
	}

	return &GeminiChat{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Complete sends the conversation and returns the model's reply
func (g *GeminiChat) Complete(ctx context.Context, messages []repositories.ChatMessage, opts repositories.CompletionOptions) (*repositories.Completion, error) {
	var contents []*genai.Content
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(opts.Temperature))
	}
	if opts.TopP > 0 {
		config.TopP = genai.Ptr(float32(opts.TopP))
	}

	for _, msg := range messages {
		switch msg.Role {
		case repositories.SystemRole:
			config.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case repositories.AssistantRole:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no content generated")
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var usage repositories.TokenUsage
	if response.UsageMetadata != nil {
		usage = repositories.TokenUsage{
			PromptTokens:     int(response.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(response.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(response.UsageMetadata.TotalTokenCount),
		}
	}

	g.logger.Info("Completion received",
		zap.String("model", g.model),
		zap.Int("totalTokens", usage.TotalTokens))

	return &repositories.Completion{
		Text:  text,
		Model: g.model,
		Usage: usage,
	}, nil
}
