// Package config provides configuration for the analyzer processes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreBackendJSON   = "json"
	StoreBackendSQLite = "sqlite"
)

// Config holds the analyzer configuration.
type Config struct {
	// Inference
	OpenAIAPIKey  string
	OpenAIAPIURL  string
	Model         string
	LLMTimeout    time.Duration
	LLMMaxRetries int

	// Extraction
	OCRConfidenceThreshold float64
	TesseractLang          string

	// Action execution
	AutoExecuteActions bool
	ActionDelay        time.Duration
	ExecuteMaxActions  int

	// Storage
	StoreBackend   string
	StorePath      string
	ScreenshotsDir string

	// Orchestration
	HistoryContext int

	// Viewer
	HTTPPort   int
	ViewerPoll time.Duration
}

// Load loads the agent configuration from the environment (and .env if
// present) and validates settings the agent cannot run without.
func Load() (*Config, error) {
	cfg := load()
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if !strings.HasPrefix(cfg.OpenAIAPIKey, "sk-") {
		return nil, fmt.Errorf("OPENAI_API_KEY appears to be invalid")
	}
	if err := cfg.ensureDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadViewer loads the configuration subset the read-only viewer needs.
// The viewer never calls the inference API, so no credential is required.
func LoadViewer() (*Config, error) {
	return load(), nil
}

func load() *Config {
	// .env is optional; the environment may already be set.
	_ = godotenv.Load()

	return &Config{
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIAPIURL:  getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		Model:         getEnv("MODEL", "gpt-4o-mini"),
		LLMTimeout:    time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond,
		LLMMaxRetries: getEnvInt("LLM_MAX_RETRIES", 5),

		OCRConfidenceThreshold: getEnvFloat("OCR_CONFIDENCE_THRESHOLD", 30),
		TesseractLang:          getEnv("TESSERACT_LANG", "eng"),

		AutoExecuteActions: getEnvBool("AUTO_EXECUTE_ACTIONS", false),
		ActionDelay:        time.Duration(getEnvInt("ACTION_DELAY_MS", 500)) * time.Millisecond,
		ExecuteMaxActions:  getEnvInt("EXECUTE_MAX_ACTIONS", 1),

		StoreBackend:   getEnv("STORE_BACKEND", StoreBackendJSON),
		StorePath:      getEnv("STORE_PATH", "data_container.json"),
		ScreenshotsDir: getEnv("SCREENSHOTS_DIR", "screenshots"),

		HistoryContext: getEnvInt("HISTORY_CONTEXT", 3),

		HTTPPort:   getEnvInt("HTTP_PORT", 8080),
		ViewerPoll: time.Duration(getEnvInt("VIEWER_POLL_MS", 2000)) * time.Millisecond,
	}
}

func (c *Config) ensureDirs() error {
	if err := os.MkdirAll(c.ScreenshotsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create screenshots dir: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
	}
	return defaultVal
}
