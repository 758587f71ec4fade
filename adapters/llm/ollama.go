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
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "qwen2.5:0.5b"
	ollamaChatTimeout  = 120 * time.Second
)

// OllamaConfig holds configuration for the local Ollama chat adapter.
type OllamaConfig struct {
	Host  string // Ollama server URL (default: "http://localhost:11434")
	Model string // model name (default: "qwen2.5:0.5b")
}

// OllamaChat implements ChatCompletion against a local Ollama server
type OllamaChat struct {
	host   string
	model  string
	client *http.Client
	logger *zap.Logger
}

var _ repositories.ChatCompletion = (*OllamaChat)(nil)

type ollamaChatRequest struct {
	Model    string                     `json:"model"`
	Messages []repositories.ChatMessage `json:"messages"`
	Stream   bool                       `json:"stream"`
	Options  ollamaOptions              `json:"options,omitempty"`
}

type ollamaOptions struct {
	NumPredict    int     `json:"num_predict,omitempty"`
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}

// NewOllamaChat creates a new Ollama chat adapter
func NewOllamaChat(config OllamaConfig, logger *zap.Logger) *OllamaChat {
	host := config.Host
	if host == "" {
		host = defaultOllamaHost
	}
	model := config.Model
	if model == "" {
		model = defaultOllamaModel
		logger.Info("Using default chat model", zap.String("model", model))
	}
	return &OllamaChat{
		host:   host,
		model:  model,
		client: &http.Client{Timeout: ollamaChatTimeout},
		logger: logger,
	}
}

// NewOllamaConfigFromEnv creates an OllamaConfig from environment variables
func NewOllamaConfigFromEnv() OllamaConfig {
	return OllamaConfig{
		Host:  os.Getenv("OLLAMA_HOST"),
		Model: os.Getenv("OLLAMA_MODEL"),
	}
}

// Complete sends the conversation and returns the model's reply
func (o *OllamaChat) Complete(ctx context.Context, messages []repositories.ChatMessage, opts repositories.CompletionOptions) (*repositories.Completion, error) {
	request := ollamaChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			NumPredict:    opts.MaxTokens,
			Temperature:   opts.Temperature,
			TopP:          opts.TopP,
			RepeatPenalty: opts.FrequencyPenalty,
		},
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := o.host + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned %d: %s", resp.StatusCode, string(errorBody))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}

	usage := repositories.TokenUsage{
		PromptTokens:     chatResp.PromptEvalCount,
		CompletionTokens: chatResp.EvalCount,
		TotalTokens:      chatResp.PromptEvalCount + chatResp.EvalCount,
	}

	o.logger.Info("Completion received",
		zap.String("model", o.model),
		zap.Int("totalTokens", usage.TotalTokens))

	return &repositories.Completion{
		Text:  chatResp.Message.Content,
		Model: o.model,
		Usage: usage,
	}, nil
}
