package api

import (
	"github.com/febriansr/vocalis/domain"
	"github.com/febriansr/vocalis/domain/repositories"
)

// TurnProcessRequest is the JSON payload for a text turn. Audio turns use
// multipart form data instead.
type TurnProcessRequest struct {
	Message string                     `json:"message"`
	Context []repositories.ChatMessage `json:"context,omitempty"`
	Options domain.TurnOptions         `json:"options,omitempty"`
}

// TurnProcessResponse is the outcome of one processed turn. AudioData is
// base64 encoded.
type TurnProcessResponse struct {
	Status      string                  `json:"status"`
	Transcript  string                  `json:"transcript,omitempty"`
	Reply       string                  `json:"reply,omitempty"`
	AudioData   string                  `json:"audio_data,omitempty"`
	AudioFormat string                  `json:"audio_format,omitempty"`
	Degraded    bool                    `json:"degraded,omitempty"`
	Usage       repositories.TokenUsage `json:"usage,omitempty"`
}

// SpeakRequest is the payload for direct text-to-speech synthesis.
type SpeakRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice,omitempty"`
	Format string `json:"format,omitempty"`
}

// TranscribeRequest is the base64 payload for standalone transcription.
type TranscribeRequest struct {
	AudioData string `json:"audio_data"`
	Format    string `json:"format,omitempty"`
}

// TranscribeResponse carries the transcript of a standalone transcription.
// An empty transcript means the clip held no recognizable speech.
type TranscribeResponse struct {
	Transcript string `json:"transcript"`
	Format     string `json:"format"`
}

// HistoryEntryResponse is one dialogue entry in the history listing.
type HistoryEntryResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// HistoryResponse is a page of dialogue history.
type HistoryResponse struct {
	Entries []HistoryEntryResponse `json:"entries"`
	Total   int                    `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// ModelInfo describes the configured providers behind the pipeline.
type ModelInfo struct {
	ChatProvider  string `json:"chat_provider"`
	ChatModel     string `json:"chat_model"`
	SpeechToText  string `json:"speech_to_text"`
	TextToSpeech  string `json:"text_to_speech"`
	ContextWindow int    `json:"context_window"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
