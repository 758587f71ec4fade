package websocket

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func TestMessageValidator_ValidateAudioTurn(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{
			name: "valid audio turn",
			message: `{
				"type": "audio_turn",
				"turn_id": "turn-123",
				"audio_data": "SGVsbG8gV29ybGQ=",
				"format": "webm",
				"options": {"voice": "nova"}
			}`,
			wantErr: false,
		},
		{
			name: "missing audio_data",
			message: `{
				"type": "audio_turn",
				"format": "webm"
			}`,
			wantErr: true,
		},
		{
			name: "missing format",
			message: `{
				"type": "audio_turn",
				"audio_data": "SGVsbG8gV29ybGQ="
			}`,
			wantErr: true,
		},
		{
			name: "invalid format",
			message: `{
				"type": "audio_turn",
				"audio_data": "SGVsbG8gV29ybGQ=",
				"format": "midi"
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.ValidateMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageValidator_ValidateTextTurn(t *testing.T) {
	validator := NewMessageValidator()

	result, err := validator.ValidateMessage([]byte(`{
		"type": "text_turn",
		"message": "what time is it",
		"options": {"max_tokens": 50}
	}`))
	if err != nil {
		t.Fatalf("ValidateMessage() error = %v", err)
	}

	textMsg, ok := result.(*TextTurnMessage)
	if !ok {
		t.Fatalf("Expected *TextTurnMessage, got %T", result)
	}
	if textMsg.Message != "what time is it" {
		t.Errorf("Expected message 'what time is it', got '%s'", textMsg.Message)
	}
	if textMsg.Options.MaxTokens != 50 {
		t.Errorf("Expected max_tokens 50, got %d", textMsg.Options.MaxTokens)
	}

	_, err = validator.ValidateMessage([]byte(`{"type": "text_turn"}`))
	if err == nil {
		t.Errorf("Expected error for empty message, got nil")
	}
}

func TestMessageValidator_ValidatePing(t *testing.T) {
	validator := NewMessageValidator()

	message := `{
		"type": "ping",
		"data": "test-ping"
	}`

	result, err := validator.ValidateMessage([]byte(message))
	if err != nil {
		t.Errorf("ValidateMessage() error = %v", err)
	}

	pingMsg, ok := result.(*PingMessage)
	if !ok {
		t.Errorf("Expected *PingMessage, got %T", result)
	}

	if pingMsg.Data != "test-ping" {
		t.Errorf("Expected data 'test-ping', got '%s'", pingMsg.Data)
	}
}

func TestCreateErrorMessage(t *testing.T) {
	turnID := "turn-7"
	code := "TEST_ERROR"
	message := "Test error message"

	errorMsg := CreateErrorMessage(turnID, code, message)

	if errorMsg.Type != MessageTypeError {
		t.Errorf("Expected type %s, got %s", MessageTypeError, errorMsg.Type)
	}
	if errorMsg.TurnID != turnID {
		t.Errorf("Expected turn_id %s, got %s", turnID, errorMsg.TurnID)
	}
	if errorMsg.Code != code {
		t.Errorf("Expected code %s, got %s", code, errorMsg.Code)
	}
	if errorMsg.Message != message {
		t.Errorf("Expected message %s, got %s", message, errorMsg.Message)
	}

	// Verify timestamp is recent
	timestamp, err := time.Parse(time.RFC3339, errorMsg.Timestamp)
	if err != nil {
		t.Errorf("Invalid timestamp format: %v", err)
	}
	if time.Since(timestamp) > time.Second {
		t.Errorf("Timestamp is not recent: %s", errorMsg.Timestamp)
	}
}

func TestCreateQueuedMessage(t *testing.T) {
	queuedMsg := CreateQueuedMessage("turn-9", 3)

	if queuedMsg.Type != MessageTypeQueued {
		t.Errorf("Expected type %s, got %s", MessageTypeQueued, queuedMsg.Type)
	}
	if queuedMsg.TurnID != "turn-9" {
		t.Errorf("Expected turn_id turn-9, got %s", queuedMsg.TurnID)
	}
	if queuedMsg.Depth != 3 {
		t.Errorf("Expected depth 3, got %d", queuedMsg.Depth)
	}
}

func TestCreatePongMessage(t *testing.T) {
	data := "test-pong-data"
	pongMsg := CreatePongMessage(data)

	if pongMsg.Type != MessageTypePong {
		t.Errorf("Expected type %s, got %s", MessageTypePong, pongMsg.Type)
	}
	if pongMsg.Data != data {
		t.Errorf("Expected data %s, got %s", data, pongMsg.Data)
	}

	// Verify timestamp is recent
	timestamp, err := time.Parse(time.RFC3339, pongMsg.Timestamp)
	if err != nil {
		t.Errorf("Invalid timestamp format: %v", err)
	}
	if time.Since(timestamp) > time.Second {
		t.Errorf("Timestamp is not recent: %s", pongMsg.Timestamp)
	}
}

func TestMessageSerialization(t *testing.T) {
	tests := []struct {
		name    string
		message interface{}
	}{
		{
			name: "AudioTurnMessage",
			message: &AudioTurnMessage{
				BaseMessage: BaseMessage{
					Type:      MessageTypeAudioTurn,
					Timestamp: time.Now().Format(time.RFC3339),
					TurnID:    "turn-1",
				},
				AudioData: "SGVsbG8=",
				Format:    "webm",
			},
		},
		{
			name: "TurnResultMessage",
			message: &TurnResultMessage{
				BaseMessage: BaseMessage{
					Type:      MessageTypeTurnResult,
					Timestamp: time.Now().Format(time.RFC3339),
					TurnID:    "turn-1",
				},
				Status:      "success",
				Transcript:  "hello",
				Reply:       "hi there",
				AudioData:   "SGVsbG8=",
				AudioFormat: "mp3",
			},
		},
		{
			name:    "ErrorMessage",
			message: CreateErrorMessage("turn-1", "TEST_ERROR", "Test message"),
		},
		{
			name:    "QueuedMessage",
			message: CreateQueuedMessage("turn-1", 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.message)
			if err != nil {
				t.Errorf("Failed to marshal message: %v", err)
				return
			}

			var result map[string]interface{}
			if err := json.Unmarshal(data, &result); err != nil {
				t.Errorf("Failed to unmarshal message: %v", err)
				return
			}

			if _, exists := result["type"]; !exists {
				t.Errorf("Message missing 'type' field")
			}
			if _, exists := result["timestamp"]; !exists {
				t.Errorf("Message missing 'timestamp' field")
			}
		})
	}
}

func TestMessageValidator_InvalidJSON(t *testing.T) {
	validator := NewMessageValidator()

	invalidMessages := []string{
		`{invalid json}`,
		`{"type": "audio_turn", "format":}`,
		``,
		`null`,
		`{"type": }`,
	}

	for i, msg := range invalidMessages {
		t.Run(fmt.Sprintf("invalid_json_%d", i), func(t *testing.T) {
			_, err := validator.ValidateMessage([]byte(msg))
			if err == nil {
				t.Errorf("Expected error for invalid JSON, got nil")
			}
		})
	}
}

func TestMessageValidator_UnsupportedMessageType(t *testing.T) {
	validator := NewMessageValidator()

	message := `{
		"type": "unsupported_type",
		"data": "some data"
	}`

	_, err := validator.ValidateMessage([]byte(message))
	if err == nil {
		t.Errorf("Expected error for unsupported message type, got nil")
	}
}
