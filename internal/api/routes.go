package api

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/febriansr/vocalis/domain"
	"github.com/febriansr/vocalis/internal/websocket"
	"github.com/febriansr/vocalis/usecase"
)

// audioContentTypes maps supported synthesis formats to their MIME types.
var audioContentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"opus": "audio/opus",
	"aac":  "audio/aac",
	"flac": "audio/flac",
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, service *usecase.TurnService, info ModelInfo, logger *zap.Logger) {
	// Health check
	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "vocalis",
			"clients": hub.ClientCount(),
		})
	})

	e.POST("/api/turn/process", func(c echo.Context) error {
		return processTurn(c, service, logger)
	})

	e.GET("/api/chat/history", func(c echo.Context) error {
		return getHistory(c, service)
	})
	e.DELETE("/api/chat/history", func(c echo.Context) error {
		return clearHistory(c, service, logger)
	})
	e.GET("/api/chat/model-info", func(c echo.Context) error {
		return c.JSON(http.StatusOK, info)
	})

	e.POST("/api/tts/speak", func(c echo.Context) error {
		return speak(c, service, logger)
	})
	e.GET("/api/tts/voices", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"voices":  domain.AvailableVoices(),
			"default": domain.DefaultVoice,
		})
	})
	e.GET("/api/tts/formats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"formats": domain.SupportedFormats(),
			"default": domain.DefaultFormat,
		})
	})

	e.POST("/api/speech/to-text", func(c echo.Context) error {
		return transcribeUpload(c, service, logger)
	})
	e.POST("/api/speech/to-text-base64", func(c echo.Context) error {
		return transcribeBase64(c, service, logger)
	})
	e.GET("/api/speech/formats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"formats": domain.CaptureFormats(),
			"default": "webm",
		})
	})

	// WebSocket endpoint for streaming clients
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(hub, c, logger)
	})
}

// processTurn runs one synchronous turn. Audio arrives as multipart form
// data under the "audio" field; text turns post JSON.
func processTurn(c echo.Context, service *usecase.TurnService, logger *zap.Logger) error {
	req, err := bindTurnRequest(c)
	if err != nil {
		logger.Warn("Rejected turn request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}

	result, err := service.RunTurn(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_input",
				Message: err.Error(),
			})
		}
		logger.Error("Turn processing failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "turn_failed",
			Message: err.Error(),
		})
	}

	if result.Status == domain.TurnStatusFailed {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   string(result.FailedStage) + "_failed",
			Message: result.Err,
		})
	}

	response := TurnProcessResponse{
		Status:      string(result.Status),
		Transcript:  result.Transcript,
		Reply:       result.Reply,
		AudioFormat: result.AudioFormat,
		Degraded:    result.Degraded,
		Usage:       result.Usage,
	}
	if len(result.Audio) > 0 {
		response.AudioData = base64.StdEncoding.EncodeToString(result.Audio)
	}
	return c.JSON(http.StatusOK, response)
}

// bindTurnRequest builds a TurnRequest from either a multipart audio upload
// or a JSON body.
func bindTurnRequest(c echo.Context) (*domain.TurnRequest, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		clip, format, err := readAudioUpload(c)
		if err != nil {
			return nil, err
		}

		req := &domain.TurnRequest{
			Audio:  clip,
			Format: format,
			Options: domain.TurnOptions{
				Voice:       c.FormValue("voice"),
				AudioFormat: c.FormValue("audio_format"),
			},
		}
		if v := c.FormValue("max_tokens"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				req.Options.MaxTokens = n
			}
		}
		if v := c.FormValue("temperature"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				req.Options.Temperature = f
			}
		}
		return req, nil
	}

	var body TurnProcessRequest
	if err := c.Bind(&body); err != nil {
		return nil, errors.New("invalid request format")
	}
	return &domain.TurnRequest{
		Message: body.Message,
		Context: body.Context,
		Options: body.Options,
	}, nil
}

// readAudioUpload reads the "audio" field of a multipart form. The format
// comes from the "format" field, then the filename extension, then "webm".
func readAudioUpload(c echo.Context) ([]byte, string, error) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return nil, "", errors.New("audio file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	clip, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}

	format := c.FormValue("format")
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	}
	if format == "" {
		format = "webm"
	}
	return clip, format, nil
}

// transcribeUpload converts one uploaded clip to text without running a
// conversational turn. An empty transcript means no speech was detected.
func transcribeUpload(c echo.Context, service *usecase.TurnService, logger *zap.Logger) error {
	clip, format, err := readAudioUpload(c)
	if err != nil {
		logger.Warn("Rejected transcription request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}
	return transcribe(c, service, logger, clip, format)
}

// transcribeBase64 is the JSON variant of transcribeUpload for clients
// that cannot post multipart forms.
func transcribeBase64(c echo.Context, service *usecase.TurnService, logger *zap.Logger) error {
	var req TranscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	clip, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_audio",
			Message: "audio_data is not valid base64",
		})
	}

	format := req.Format
	if format == "" {
		format = "webm"
	}
	return transcribe(c, service, logger, clip, format)
}

func transcribe(c echo.Context, service *usecase.TurnService, logger *zap.Logger, clip []byte, format string) error {
	transcript, err := service.Transcribe(c.Request().Context(), clip, format)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_input",
				Message: err.Error(),
			})
		}
		logger.Error("Transcription failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "transcription_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, TranscribeResponse{
		Transcript: transcript,
		Format:     format,
	})
}

func getHistory(c echo.Context, service *usecase.TurnService) error {
	history := service.History()

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	entries := history.Slice(limit, offset)
	response := HistoryResponse{
		Entries: make([]HistoryEntryResponse, 0, len(entries)),
		Total:   history.Len(),
		Limit:   limit,
		Offset:  offset,
	}
	for _, entry := range entries {
		response.Entries = append(response.Entries, HistoryEntryResponse{
			Role:      string(entry.Role),
			Content:   entry.Content,
			Timestamp: entry.Timestamp.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, response)
}

func clearHistory(c echo.Context, service *usecase.TurnService, logger *zap.Logger) error {
	cleared := service.History().Len()
	service.History().Clear()
	logger.Info("Dialogue history cleared", zap.Int("entries", cleared))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"cleared": cleared,
	})
}

// speak synthesizes a piece of text directly, returning raw audio bytes.
func speak(c echo.Context, service *usecase.TurnService, logger *zap.Logger) error {
	var req SpeakRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	audio, format, err := service.Synthesize(c.Request().Context(), req.Text, req.Voice, req.Format)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_input",
				Message: err.Error(),
			})
		}
		logger.Error("Synthesis failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "synthesis_failed",
			Message: err.Error(),
		})
	}

	contentType := audioContentTypes[format]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, contentType, audio)
}
