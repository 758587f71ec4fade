package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/febriansr/vocalis/domain"
	"github.com/febriansr/vocalis/domain/repositories"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeAudioTurn  MessageType = "audio_turn"
	MessageTypeTextTurn   MessageType = "text_turn"
	MessageTypeQueued     MessageType = "queued"
	MessageTypeTurnResult MessageType = "turn_result"
	MessageTypePing       MessageType = "ping"
	MessageTypePong       MessageType = "pong"
	MessageTypeError      MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
	TurnID    string      `json:"turn_id,omitempty"`
}

// AudioTurnMessage carries one recorded clip to process as a turn.
// AudioData is base64 encoded.
type AudioTurnMessage struct {
	BaseMessage
	AudioData string             `json:"audio_data"`
	Format    string             `json:"format"`
	Options   domain.TurnOptions `json:"options,omitempty"`
}

// TextTurnMessage carries a typed message to process as a turn.
type TextTurnMessage struct {
	BaseMessage
	Message string             `json:"message"`
	Options domain.TurnOptions `json:"options,omitempty"`
}

// QueuedMessage acknowledges an accepted turn with its queue position.
type QueuedMessage struct {
	BaseMessage
	Depth int `json:"depth"`
}

// TurnResultMessage is the terminal outcome of a queued turn. AudioData is
// base64 encoded and empty for text-only or degraded results.
type TurnResultMessage struct {
	BaseMessage
	Status      string                  `json:"status"`
	Transcript  string                  `json:"transcript,omitempty"`
	Reply       string                  `json:"reply,omitempty"`
	AudioData   string                  `json:"audio_data,omitempty"`
	AudioFormat string                  `json:"audio_format,omitempty"`
	Degraded    bool                    `json:"degraded,omitempty"`
	FailedStage string                  `json:"failed_stage,omitempty"`
	Error       string                  `json:"error,omitempty"`
	Usage       repositories.TokenUsage `json:"usage,omitempty"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage parses and validates an incoming message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeAudioTurn:
		var msg AudioTurnMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid audio turn message: %w", err)
		}
		if err := v.validateAudioTurn(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeTextTurn:
		var msg TextTurnMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid text turn message: %w", err)
		}
		if msg.Message == "" {
			return nil, fmt.Errorf("message is required")
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

func (v *MessageValidator) validateAudioTurn(msg *AudioTurnMessage) error {
	if msg.AudioData == "" {
		return fmt.Errorf("audio_data is required")
	}
	if msg.Format == "" {
		return fmt.Errorf("format is required")
	}
	validFormats := map[string]bool{
		"webm": true, "ogg": true, "opus": true, "wav": true, "mp4": true, "mp3": true, "flac": true, "pcm": true,
	}
	if !validFormats[msg.Format] {
		return fmt.Errorf("format must be one of: webm, ogg, opus, wav, mp4, mp3, flac, pcm")
	}
	return nil
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(turnID, code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Format(time.RFC3339),
			TurnID:    turnID,
		},
		Code:    code,
		Message: message,
	}
}

// CreateQueuedMessage acknowledges a turn with its position in the queue.
func CreateQueuedMessage(turnID string, depth int) *QueuedMessage {
	return &QueuedMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeQueued,
			Timestamp: time.Now().Format(time.RFC3339),
			TurnID:    turnID,
		},
		Depth: depth,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePong,
			Timestamp: time.Now().Format(time.RFC3339),
		},
		Data: data,
	}
}
