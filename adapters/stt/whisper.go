package stt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain/repositories"
)

const (
	defaultWhisperBaseURL  = "https://api.openai.com/v1"
	defaultWhisperModel    = "whisper-1"
	defaultWhisperLanguage = "en"
	whisperRequestTimeout  = 60 * time.Second
)

// WhisperConfig holds configuration for the Whisper transcription adapter.
// Required fields:
// - APIKey: Your OpenAI API key
// Optional fields with defaults:
// - APIBaseURL: API base URL (default: "https://api.openai.com/v1")
// - Model: transcription model (default: "whisper-1")
// - Language: language hint passed to the model (default: "en")
type WhisperConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
	Language   string
}

// WhisperSTT implements SpeechToText using the OpenAI transcription API
type WhisperSTT struct {
	apiKey     string
	apiBaseURL string
	model      string
	language   string
	client     *http.Client
	logger     *zap.Logger
}

// Ensure WhisperSTT implements the SpeechToText interface
var _ repositories.SpeechToText = (*WhisperSTT)(nil)

// NewWhisperSTT creates a new Whisper transcription adapter
func NewWhisperSTT(config WhisperConfig, logger *zap.Logger) (*WhisperSTT, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultWhisperBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultWhisperModel
		logger.Info("Using default transcription model", zap.String("model", model))
	}
	language := config.Language
	if language == "" {
		language = defaultWhisperLanguage
	}

	return &WhisperSTT{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		model:      model,
		language:   language,
		client:     &http.Client{Timeout: whisperRequestTimeout},
		logger:     logger,
	}, nil
}

// NewWhisperConfigFromEnv creates a WhisperConfig from environment variables
func NewWhisperConfigFromEnv() WhisperConfig {
	return WhisperConfig{
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		APIBaseURL: os.Getenv("OPENAI_API_BASE_URL"),
		Model:      os.Getenv("WHISPER_MODEL"),
		Language:   os.Getenv("WHISPER_LANGUAGE"),
	}
}

// Transcribe uploads the clip and returns the transcript text
func (w *WhisperSTT) Transcribe(ctx context.Context, audio []byte, formatHint string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	ext := formatHint
	if ext == "" {
		ext = "webm"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "clip."+ext)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio payload: %w", err)
	}
	_ = writer.WriteField("model", w.model)
	_ = writer.WriteField("response_format", "text")
	_ = writer.WriteField("language", w.language)
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	url := w.apiBaseURL + "/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+w.apiKey)

	w.logger.Debug("Sending transcription request",
		zap.Int("audioSize", len(audio)),
		zap.String("format", ext))

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API returned %d: %s", resp.StatusCode, string(respBody))
	}

	text := strings.TrimSpace(string(respBody))
	w.logger.Info("Transcription completed", zap.Int("transcriptChars", len(text)))
	return text, nil
}
