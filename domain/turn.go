package domain

import (
	"github.com/febriansr/vocalis/domain/repositories"
)

// Stage identifies which pipeline stage produced a failure.
type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageComplete   Stage = "complete"
	StageSynthesize Stage = "synthesize"
)

// TurnStatus is the tagged outcome of a processed turn.
type TurnStatus string

const (
	TurnStatusSuccess          TurnStatus = "success"
	TurnStatusNoSpeechDetected TurnStatus = "no_speech_detected"
	TurnStatusFailed           TurnStatus = "failed"
)

// TurnOptions are the caller-tunable generation settings for one turn.
// Zero values are replaced by service defaults.
type TurnOptions struct {
	MaxTokens        int     `json:"max_tokens,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	TopP             float64 `json:"top_p,omitempty"`
	FrequencyPenalty float64 `json:"frequency_penalty,omitempty"`
	Voice            string  `json:"voice,omitempty"`
	AudioFormat      string  `json:"audio_format,omitempty"`
	// Synthesize controls whether the reply is voiced. Audio turns always
	// synthesize; text turns opt in.
	Synthesize bool `json:"synthesize,omitempty"`
}

// TurnRequest is one unit of work for the turn pipeline. Immutable once
// enqueued. Either Audio (with its Format tag) or Message is set.
type TurnRequest struct {
	Message string
	Audio   []byte
	Format  string
	Context []repositories.ChatMessage
	Options TurnOptions
}

// IsAudio reports whether this request came in as audio. A tagged but empty
// clip still counts: it flows through transcription and settles as a
// no-speech turn instead of a validation error.
func (r *TurnRequest) IsAudio() bool {
	return len(r.Audio) > 0 || r.Format != ""
}

// TurnResult is the terminal outcome of a TurnRequest.
//
// Status TurnStatusFailed carries FailedStage and Err. A successful turn
// whose synthesis stage failed keeps TurnStatusSuccess with Degraded set and
// no Audio; the reply text is the primary value of a turn.
type TurnResult struct {
	Status      TurnStatus              `json:"status"`
	Transcript  string                  `json:"transcript,omitempty"`
	Reply       string                  `json:"reply,omitempty"`
	Audio       []byte                  `json:"-"`
	AudioFormat string                  `json:"format,omitempty"`
	Degraded    bool                    `json:"degraded,omitempty"`
	FailedStage Stage                   `json:"failed_stage,omitempty"`
	Err         string                  `json:"error,omitempty"`
	Usage       repositories.TokenUsage `json:"usage,omitempty"`
}

// NoSpeechResult is the outcome for a clip with no recognizable speech.
func NoSpeechResult() *TurnResult {
	return &TurnResult{Status: TurnStatusNoSpeechDetected}
}

// FailedResult tags an error with the stage that produced it.
func FailedResult(stage Stage, err error) *TurnResult {
	return &TurnResult{
		Status:      TurnStatusFailed,
		FailedStage: stage,
		Err:         err.Error(),
	}
}
