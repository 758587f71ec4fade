package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/febriansr/vocalis/adapters/llm"
	"github.com/febriansr/vocalis/adapters/stt"
	"github.com/febriansr/vocalis/adapters/tts"
	"github.com/febriansr/vocalis/domain/entities"
	"github.com/febriansr/vocalis/domain/repositories"
	"github.com/febriansr/vocalis/internal/api"
	"github.com/febriansr/vocalis/internal/config"
	"github.com/febriansr/vocalis/internal/websocket"
	"github.com/febriansr/vocalis/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize pipeline adapters per configuration
	speechToText, sttName := buildSpeechToText(cfg, logger)
	chatCompletion, chatName, chatModel := buildChatCompletion(cfg, logger)
	textToSpeech, ttsName := buildTextToSpeech(cfg, logger)

	// Initialize usecase services
	history := entities.NewHistory(cfg.HistoryCap)
	turnService := usecase.NewTurnService(
		speechToText,
		chatCompletion,
		textToSpeech,
		history,
		usecase.TurnServiceConfig{
			SystemPrompt:  cfg.SystemPrompt,
			ContextWindow: cfg.ContextWindow,
		},
		logger,
	)
	turnQueue := usecase.NewTurnQueue(turnService, cfg.TurnTimeout, logger)

	// Initialize WebSocket hub draining into the turn queue
	hub := websocket.NewHub(turnQueue, logger)
	go hub.Run()

	// Initialize API routes
	info := api.ModelInfo{
		ChatProvider:  chatName,
		ChatModel:     chatModel,
		SpeechToText:  sttName,
		TextToSpeech:  ttsName,
		ContextWindow: cfg.ContextWindow,
	}
	api.InitRoutes(e, hub, turnService, info, logger)

	logger.Info("Pipeline configured",
		zap.String("stt", sttName),
		zap.String("llm", chatName),
		zap.String("tts", ttsName),
		zap.Int("historyCap", cfg.HistoryCap))

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func buildSpeechToText(cfg *config.Config, logger *zap.Logger) (repositories.SpeechToText, string) {
	switch cfg.STTProvider {
	case config.ProviderOpenAI:
		adapter, err := stt.NewWhisperSTT(stt.NewWhisperConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize Whisper transcription", zap.Error(err))
		}
		return adapter, "whisper"
	case config.ProviderGoogle:
		return stt.NewGoogleSpeechToText(stt.NewGoogleConfigFromEnv(), logger), "google"
	default:
		return stt.NewMockSpeechToText(logger), "mock"
	}
}

func buildChatCompletion(cfg *config.Config, logger *zap.Logger) (repositories.ChatCompletion, string, string) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		openAIConfig := llm.NewOpenAIConfigFromEnv()
		adapter, err := llm.NewOpenAIChat(openAIConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize OpenAI chat", zap.Error(err))
		}
		return adapter, "openai", openAIConfig.Model
	case config.ProviderGemini:
		adapter, err := llm.NewGeminiChat(context.Background(), cfg.GeminiModel, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini chat", zap.Error(err))
		}
		return adapter, "gemini", cfg.GeminiModel
	case config.ProviderOllama:
		ollamaConfig := llm.NewOllamaConfigFromEnv()
		return llm.NewOllamaChat(ollamaConfig, logger), "ollama", ollamaConfig.Model
	default:
		return llm.NewMockChat(), "mock", "mock"
	}
}

func buildTextToSpeech(cfg *config.Config, logger *zap.Logger) (repositories.TextToSpeech, string) {
	switch cfg.TTSProvider {
	case config.ProviderOpenAI:
		adapter, err := tts.NewOpenAITTS(tts.NewOpenAIConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to initialize OpenAI synthesis", zap.Error(err))
		}
		return adapter, "openai"
	default:
		return tts.NewMockTextToSpeech(logger), "mock"
	}
}
