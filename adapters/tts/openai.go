package tts

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
	defaultTTSBaseURL = "https://api.openai.com/v1"
	defaultTTSModel   = "tts-1"
	ttsRequestTimeout = 60 * time.Second
)

// OpenAIConfig holds configuration for the OpenAI speech synthesis adapter.
// Required fields:
// - APIKey: Your OpenAI API key
// Optional fields with defaults:
// - APIBaseURL: API base URL (default: "https://api.openai.com/v1")
// - Model: synthesis model (default: "tts-1")
type OpenAIConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
}

// OpenAITTS implements TextToSpeech using the OpenAI audio API
type OpenAITTS struct {
	apiKey     string
	apiBaseURL string
	model      string
	client     *http.Client
	logger     *zap.Logger
}

// Ensure OpenAITTS implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*OpenAITTS)(nil)

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// NewOpenAITTS creates a new OpenAI synthesis adapter
func NewOpenAITTS(config OpenAIConfig, logger *zap.Logger) (*OpenAITTS, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultTTSBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultTTSModel
		logger.Info("Using default synthesis model", zap.String("model", model))
	}

	return &OpenAITTS{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		model:      model,
		client:     &http.Client{Timeout: ttsRequestTimeout},
		logger:     logger,
	}, nil
}

// NewOpenAIConfigFromEnv creates an OpenAIConfig from environment variables
func NewOpenAIConfigFromEnv() OpenAIConfig {
	return OpenAIConfig{
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		APIBaseURL: os.Getenv("OPENAI_API_BASE_URL"),
		Model:      os.Getenv("TTS_MODEL"),
	}
}

// Synthesize renders text as audio bytes in the given voice and format
func (o *OpenAITTS) Synthesize(ctx context.Context, text string, voice string, format string) ([]byte, error) {
	request := speechRequest{
		Model:          o.model,
		Voice:          voice,
		Input:          text,
		ResponseFormat: format,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := o.apiBaseURL + "/audio/speech"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	o.logger.Debug("Sending synthesis request",
		zap.String("voice", voice),
		zap.String("format", format),
		zap.Int("textChars", len(text)))

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("synthesis API returned %d: %s", resp.StatusCode, string(errorBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}

	o.logger.Info("Synthesis completed",
		zap.String("voice", voice),
		zap.String("format", format),
		zap.Int("audioSize", len(audio)))

	return audio, nil
}
