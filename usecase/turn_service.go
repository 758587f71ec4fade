package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain"
	"github.com/febriansr/vocalis/domain/entities"
	"github.com/febriansr/vocalis/domain/repositories"
	"github.com/febriansr/vocalis/internal/audio"
)

const (
	defaultMaxTokens     = 1000
	defaultTemperature   = 0.7
	defaultTopP          = 1.0
	defaultContextWindow = 10
)

const defaultSystemPrompt = `You are a helpful AI voice assistant. You should:

1. Provide clear, concise, and helpful responses
2. Be conversational and natural in your tone
3. Keep responses reasonably short for voice interaction
4. Be informative and accurate
5. Show empathy and understanding
6. Ask clarifying questions when needed
7. Provide actionable advice when appropriate

Remember that users are interacting with you through voice, so keep responses conversational and easy to understand when spoken aloud.`

// TurnServiceConfig tunes context assembly. Zero values use the defaults.
type TurnServiceConfig struct {
	SystemPrompt  string
	ContextWindow int // history entries pulled into each prompt
}

// TurnService chains transcription, completion and synthesis into one turn.
//
// The service is stateless and reentrant; its only shared dependency is the
// dialogue history, whose context read and pair append are each atomic, so
// concurrent turns never observe or produce a half-written pair. Faults stay
// isolated to their stage: transcription and completion failures abort the
// turn, a synthesis failure only degrades it to text.
type TurnService struct {
	stt     repositories.SpeechToText
	llm     repositories.ChatCompletion
	tts     repositories.TextToSpeech
	history *entities.History
	logger  *zap.Logger

	systemPrompt  string
	contextWindow int
}

// NewTurnService creates a new turn orchestration service
func NewTurnService(
	stt repositories.SpeechToText,
	llm repositories.ChatCompletion,
	tts repositories.TextToSpeech,
	history *entities.History,
	config TurnServiceConfig,
	logger *zap.Logger,
) *TurnService {
	systemPrompt := config.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	contextWindow := config.ContextWindow
	if contextWindow <= 0 {
		contextWindow = defaultContextWindow
	}
	return &TurnService{
		stt:           stt,
		llm:           llm,
		tts:           tts,
		history:       history,
		logger:        logger,
		systemPrompt:  systemPrompt,
		contextWindow: contextWindow,
	}
}

// History exposes the dialogue record for the chat surface (read + clear).
func (s *TurnService) History() *entities.History {
	return s.history
}

// RunTurn processes one turn to a terminal outcome. Collaborator failures
// come back inside the result tagged with their stage; the error return is
// reserved for inputs rejected before any collaborator is called.
func (s *TurnService) RunTurn(ctx context.Context, req *domain.TurnRequest) (*domain.TurnResult, error) {
	transcript := req.Message

	// Stage 1: transcribe.
	if req.IsAudio() {
		clip := req.Audio
		if audio.NeedsNormalization(req.Format) {
			normalized, err := audio.Normalize(clip)
			if err != nil {
				s.logger.Error("Audio normalization failed", zap.Error(err))
				return domain.FailedResult(domain.StageTranscribe, err), nil
			}
			clip = normalized
		}

		text, err := s.stt.Transcribe(ctx, clip, req.Format)
		if err != nil {
			s.logger.Error("Transcription failed", zap.Error(err))
			return domain.FailedResult(domain.StageTranscribe, err), nil
		}
		transcript = text

		if strings.TrimSpace(transcript) == "" {
			s.logger.Info("No speech detected", zap.Int("audioSize", len(req.Audio)))
			return domain.NoSpeechResult(), nil
		}
	} else if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	// Stage 2: complete.
	messages := s.buildContext(transcript, req.Context)
	completion, err := s.llm.Complete(ctx, messages, completionOptions(req.Options))
	if err != nil {
		s.logger.Error("Completion failed", zap.Error(err))
		return domain.FailedResult(domain.StageComplete, err), nil
	}

	// The pair lands together or not at all; a completion failure above
	// leaves the history untouched.
	s.history.AppendPair(
		entities.NewHistoryEntry(entities.RoleUser, transcript),
		entities.NewHistoryEntry(entities.RoleAssistant, completion.Text),
	)

	result := &domain.TurnResult{
		Status:     domain.TurnStatusSuccess,
		Transcript: transcript,
		Reply:      completion.Text,
		Usage:      completion.Usage,
	}

	if !req.IsAudio() && !req.Options.Synthesize {
		return result, nil
	}

	// Stage 3: synthesize. Non-fatal: the reply text already carries the
	// turn's value.
	replyAudio, format, err := s.Synthesize(ctx, completion.Text, req.Options.Voice, req.Options.AudioFormat)
	if err != nil {
		s.logger.Warn("Synthesis failed, returning text-only turn", zap.Error(err))
		result.Degraded = true
		return result, nil
	}
	result.Audio = replyAudio
	result.AudioFormat = format
	return result, nil
}

// Transcribe converts a single clip to text without running a full turn.
// An empty transcript means no speech was detected; it is not an error.
func (s *TurnService) Transcribe(ctx context.Context, clip []byte, format string) (string, error) {
	if len(clip) == 0 {
		return "", fmt.Errorf("%w: audio is required", domain.ErrInvalidInput)
	}

	if audio.NeedsNormalization(format) {
		normalized, err := audio.Normalize(clip)
		if err != nil {
			s.logger.Error("Audio normalization failed", zap.Error(err))
			return "", err
		}
		clip = normalized
	}

	text, err := s.stt.Transcribe(ctx, clip, format)
	if err != nil {
		s.logger.Error("Transcription failed", zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Synthesize validates and voices a piece of text. Unrecognized voice or
// format values fall back to the service defaults rather than failing; text
// over the character ceiling is rejected before any network call.
func (s *TurnService) Synthesize(ctx context.Context, text string, voice string, format string) ([]byte, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > domain.MaxSynthesisChars {
		return nil, "", fmt.Errorf("%w: text too long (max %d characters)", domain.ErrInvalidInput, domain.MaxSynthesisChars)
	}

	if !domain.ValidVoice(voice) {
		voice = domain.DefaultVoice
	}
	if !domain.ValidFormat(format) {
		format = domain.DefaultFormat
	}

	replyAudio, err := s.tts.Synthesize(ctx, text, voice, format)
	if err != nil {
		return nil, "", fmt.Errorf("synthesis failed: %w", err)
	}
	return replyAudio, format, nil
}

// buildContext assembles the prompt: system prompt, caller-supplied context,
// the most recent history entries, then the new user message. The assembled
// sequence is never stored; it is rebuilt per request.
func (s *TurnService) buildContext(message string, callerContext []repositories.ChatMessage) []repositories.ChatMessage {
	messages := make([]repositories.ChatMessage, 0, 2+len(callerContext)+s.contextWindow)
	messages = append(messages, repositories.ChatMessage{
		Role:    repositories.SystemRole,
		Content: s.systemPrompt,
	})
	messages = append(messages, callerContext...)
	for _, entry := range s.history.Recent(s.contextWindow) {
		messages = append(messages, repositories.ChatMessage{
			Role:    chatRole(entry.Role),
			Content: entry.Content,
		})
	}
	return append(messages, repositories.ChatMessage{
		Role:    repositories.UserRole,
		Content: message,
	})
}

func chatRole(role entities.Role) repositories.Role {
	if role == entities.RoleAssistant {
		return repositories.AssistantRole
	}
	return repositories.UserRole
}

func completionOptions(opts domain.TurnOptions) repositories.CompletionOptions {
	out := repositories.CompletionOptions{
		MaxTokens:        opts.MaxTokens,
		Temperature:      opts.Temperature,
		TopP:             opts.TopP,
		FrequencyPenalty: opts.FrequencyPenalty,
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = defaultMaxTokens
	}
	if out.Temperature == 0 {
		out.Temperature = defaultTemperature
	}
	if out.TopP == 0 {
		out.TopP = defaultTopP
	}
	return out
}
