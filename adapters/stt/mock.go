package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain/repositories"
)

// MockSpeechToText is a placeholder implementation for speech recognition
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{logger: logger}
}

// Transcribe returns a canned transcript sized to the clip
func (s *MockSpeechToText) Transcribe(ctx context.Context, audio []byte, formatHint string) (string, error) {
	s.logger.Info("Processing mock transcription",
		zap.Int("audioSize", len(audio)),
		zap.String("format", formatHint))

	// Tiny clips read as silence so the no-speech path stays reachable.
	switch {
	case len(audio) > 10000:
		return "Tell me something interesting about the deep ocean.", nil
	case len(audio) > 5000:
		return "What is the weather like today?", nil
	case len(audio) > 1000:
		return "Hello there!", nil
	default:
		return "", nil
	}
}
