// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	RandomSeed  int64
	Bot         BotConfig
}

// BotConfig controls the fallback conversation engine.
type BotConfig struct {
	Enabled             bool
	BaseURL             string
	Model               string
	MaxTokens           int
	Temperature         float64
	MemoryLimit         int
	MaxNoQuestionTurns  int
	SimilarityThreshold float64
	MaxWords            int
	UnavailableFor      time.Duration
	Workers             int
	AssignAfter         time.Duration
	TypingBase          time.Duration
	TypingPerChar       time.Duration
	PersonaFile         string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		RandomSeed:  getEnvInt64("RANDOM_SEED", 0),
		Bot: BotConfig{
			Enabled:             getEnvBool("BOT_ENABLED", true),
			BaseURL:             getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Model:               getEnv("BOT_MODEL", "gemma3:4b"),
			MaxTokens:           getEnvInt("BOT_MAX_TOKENS", 128),
			Temperature:         getEnvFloat("BOT_TEMPERATURE", 0.7),
			MemoryLimit:         getEnvInt("BOT_MEMORY_LIMIT", 12),
			MaxNoQuestionTurns:  getEnvInt("BOT_MAX_NO_QUESTION_TURNS", 2),
			SimilarityThreshold: getEnvFloat("BOT_SIMILARITY_THRESHOLD", 0.8),
			MaxWords:            getEnvInt("BOT_MAX_WORDS", 4),
			UnavailableFor:      time.Duration(getEnvInt("BOT_UNAVAILABLE_SECONDS", 30)) * time.Second,
			Workers:             getEnvInt("BOT_WORKERS", 4),
			AssignAfter:         getEnvDuration("BOT_ASSIGN_AFTER", 10*time.Second),
			TypingBase:          getEnvDuration("BOT_TYPING_BASE", 800*time.Millisecond),
			TypingPerChar:       getEnvDuration("BOT_TYPING_PER_CHAR", 15*time.Millisecond),
			PersonaFile:         getEnv("PERSONA_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are sane.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Bot.Enabled {
		if c.Bot.BaseURL == "" {
			return fmt.Errorf("OLLAMA_BASE_URL cannot be empty when the bot is enabled")
		}
		if c.Bot.Model == "" {
			return fmt.Errorf("BOT_MODEL cannot be empty when the bot is enabled")
		}
	}
	if c.Bot.MaxTokens <= 0 {
		return fmt.Errorf("BOT_MAX_TOKENS must be > 0")
	}
	if c.Bot.MaxWords <= 0 {
		return fmt.Errorf("BOT_MAX_WORDS must be > 0")
	}
	if c.Bot.SimilarityThreshold < 0 || c.Bot.SimilarityThreshold > 1 {
		return fmt.Errorf("BOT_SIMILARITY_THRESHOLD must be in [0,1]")
	}
	if c.Bot.Workers <= 0 {
		return fmt.Errorf("BOT_WORKERS must be > 0")
	}
	if c.Bot.AssignAfter <= 0 {
		return fmt.Errorf("BOT_ASSIGN_AFTER must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
