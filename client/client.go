package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain"
	"github.com/febriansr/vocalis/internal/api"
)

// Client talks to the turn server's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds an API client for the given base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// SendAudioTurn posts a recorded clip for processing and returns the turn's
// terminal outcome.
func (c *Client) SendAudioTurn(ctx context.Context, clip []byte, format string, opts domain.TurnOptions) (*domain.TurnResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", "clip."+format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(clip); err != nil {
		return nil, err
	}
	if err := writer.WriteField("format", format); err != nil {
		return nil, err
	}
	if opts.Voice != "" {
		if err := writer.WriteField("voice", opts.Voice); err != nil {
			return nil, err
		}
	}
	if opts.AudioFormat != "" {
		if err := writer.WriteField("audio_format", opts.AudioFormat); err != nil {
			return nil, err
		}
	}
	if opts.MaxTokens > 0 {
		if err := writer.WriteField("max_tokens", strconv.Itoa(opts.MaxTokens)); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/turn/process", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.doTurn(req)
}

// SendTextTurn posts a typed message for processing.
func (c *Client) SendTextTurn(ctx context.Context, message string, opts domain.TurnOptions) (*domain.TurnResult, error) {
	payload, err := json.Marshal(api.TurnProcessRequest{
		Message: message,
		Options: opts,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/turn/process", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doTurn(req)
}

func (c *Client) doTurn(req *http.Request) (*domain.TurnResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("turn failed: %s: %s", apiErr.Error, apiErr.Message)
		}
		return nil, fmt.Errorf("turn failed: status %d", resp.StatusCode)
	}

	var turn api.TurnProcessResponse
	if err := json.Unmarshal(body, &turn); err != nil {
		return nil, err
	}

	result := &domain.TurnResult{
		Status:      domain.TurnStatus(turn.Status),
		Transcript:  turn.Transcript,
		Reply:       turn.Reply,
		AudioFormat: turn.AudioFormat,
		Degraded:    turn.Degraded,
		Usage:       turn.Usage,
	}
	if turn.AudioData != "" {
		audio, err := base64.StdEncoding.DecodeString(turn.AudioData)
		if err != nil {
			return nil, fmt.Errorf("undecodable audio in response: %w", err)
		}
		result.Audio = audio
	}
	return result, nil
}

// Speak synthesizes text directly, returning the raw audio bytes and the
// response content type.
func (c *Client) Speak(ctx context.Context, text, voice, format string) ([]byte, string, error) {
	payload, err := json.Marshal(api.SpeakRequest{Text: text, Voice: voice, Format: format})
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tts/speak", bytes.NewReader(payload))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("synthesis failed: status %d", resp.StatusCode)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// History fetches a page of dialogue history.
func (c *Client) History(ctx context.Context, limit, offset int) (*api.HistoryResponse, error) {
	url := fmt.Sprintf("%s/api/chat/history?limit=%d&offset=%d", c.baseURL, limit, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch failed: status %d", resp.StatusCode)
	}

	var history api.HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, err
	}
	return &history, nil
}

// ClearHistory drops the server's dialogue history.
func (c *Client) ClearHistory(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/chat/history", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history clear failed: status %d", resp.StatusCode)
	}
	return nil
}
