package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain/repositories"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
	openAIRequestTimeout = 60 * time.Second
)

// OpenAIConfig holds configuration for the OpenAI chat adapter.
// Required fields:
// - APIKey: Your OpenAI API key
// Optional fields with defaults:
// - APIBaseURL: API base URL (default: "https://api.openai.com/v1")
// - Model: chat model (default: "gpt-3.5-turbo")
type OpenAIConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
}

// OpenAIChat implements ChatCompletion using the OpenAI chat completions API
type OpenAIChat struct {
	apiKey     string
	apiBaseURL string
	model      string
	client     *http.Client
	logger     *zap.Logger
}

// Ensure OpenAIChat implements the ChatCompletion interface
var _ repositories.ChatCompletion = (*OpenAIChat)(nil)

type openAIChatRequest struct {
	Model            string                     `json:"model"`
	Messages         []repositories.ChatMessage `json:"messages"`
	MaxTokens        int                        `json:"max_tokens,omitempty"`
	Temperature      float64                    `json:"temperature,omitempty"`
	TopP             float64                    `json:"top_p,omitempty"`
	FrequencyPenalty float64                    `json:"frequency_penalty,omitempty"`
	Stream           bool                       `json:"stream"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage repositories.TokenUsage `json:"usage"`
}

// NewOpenAIChat creates a new OpenAI chat adapter
func NewOpenAIChat(config OpenAIConfig, logger *zap.Logger) (*OpenAIChat, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultOpenAIBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultOpenAIModel
		logger.Info("Using default chat model", zap.String("model", model))
	}

	return &OpenAIChat{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		model:      model,
		client:     &http.Client{Timeout: openAIRequestTimeout},
		logger:     logger,
	}, nil
}

// NewOpenAIConfigFromEnv creates an OpenAIConfig from environment variables
func NewOpenAIConfigFromEnv() OpenAIConfig {
	return OpenAIConfig{
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		APIBaseURL: os.Getenv("OPENAI_API_BASE_URL"),
		Model:      os.Getenv("OPENAI_MODEL"),
	}
}

// Complete sends the conversation and returns the model's reply
func (o *OpenAIChat) Complete(ctx context.Context, messages []repositories.ChatMessage, opts repositories.CompletionOptions) (*repositories.Completion, error) {
	request := openAIChatRequest{
		Model:            o.model,
		Messages:         messages,
		MaxTokens:        opts.MaxTokens,
		Temperature:      opts.Temperature,
		TopP:             opts.TopP,
		FrequencyPenalty: opts.FrequencyPenalty,
		Stream:           false,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := o.apiBaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("completion API returned %d: %s", resp.StatusCode, string(errorBody))
	}

	var chatResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("completion API returned no choices")
	}

	o.logger.Info("Completion received",
		zap.String("model", o.model),
		zap.Int("totalTokens", chatResp.Usage.TotalTokens))

	return &repositories.Completion{
		Text:  chatResp.Choices[0].Message.Content,
		Model: o.model,
		Usage: chatResp.Usage,
	}, nil
}
