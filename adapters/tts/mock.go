package tts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain/repositories"
)

// MockTextToSpeech is a placeholder implementation for speech synthesis
type MockTextToSpeech struct {
	logger *zap.Logger
}

// NewMockTextToSpeech creates a new mock synthesis service
func NewMockTextToSpeech(logger *zap.Logger) repositories.TextToSpeech {
	return &MockTextToSpeech{logger: logger}
}

// Synthesize returns a fake payload carrying the requested parameters
func (m *MockTextToSpeech) Synthesize(ctx context.Context, text string, voice string, format string) ([]byte, error) {
	m.logger.Info("Processing mock synthesis",
		zap.String("voice", voice),
		zap.String("format", format),
		zap.Int("textChars", len(text)))

	return []byte(fmt.Sprintf("%s-%s-audio:%d", voice, format, len(text))), nil
}
