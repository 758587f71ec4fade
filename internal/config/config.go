package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted for each pipeline stage.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderMock   = "mock"
)

// Config holds the server's runtime settings, read from the environment.
type Config struct {
	Port string

	// Provider selection per pipeline stage.
	STTProvider string
	LLMProvider string
	TTSProvider string

	GeminiModel string

	// Dialogue settings.
	HistoryCap    int
	ContextWindow int
	SystemPrompt  string

	// TurnTimeout bounds one queued turn end to end.
	TurnTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          envString("PORT", "8080"),
		STTProvider:   envString("STT_PROVIDER", ProviderMock),
		LLMProvider:   envString("LLM_PROVIDER", ProviderMock),
		TTSProvider:   envString("TTS_PROVIDER", ProviderMock),
		GeminiModel:   envString("GEMINI_MODEL", "gemini-2.0-flash"),
		HistoryCap:    envInt("HISTORY_CAP", 100),
		ContextWindow: envInt("CONTEXT_WINDOW", 10),
		SystemPrompt:  os.Getenv("SYSTEM_PROMPT"),
		TurnTimeout:   envDuration("TURN_TIMEOUT", 120*time.Second),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
