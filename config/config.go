package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all settings of the inspector.
type Config struct {
	TelegramToken     string
	HTTPAddr          string
	CatalogFile       string
	LogLevel          string
	InspectionTimeout time.Duration
	OpenRouter        OpenRouterConfig
	Images            ImageConfig
}

// OpenRouterConfig configures the remote inference endpoint.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string // sent as HTTP-Referer, identifies the calling site
	Title   string // sent as X-Title
	Timeout time.Duration
}

// ImageConfig configures image loading.
type ImageConfig struct {
	FetchTimeout time.Duration
	MaxBytes     int64
	MinSide      int
}

// Load reads the .env file if present and then the environment.
func Load() (*Config, error) {
	// .env is optional, ignore the error if it does not exist
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:          envString("HTTP_ADDR", ":8080"),
		CatalogFile:       os.Getenv("CATALOG_FILE"),
		LogLevel:          envString("LOG_LEVEL", "info"),
		InspectionTimeout: envDuration("INSPECTION_TIMEOUT", 90*time.Second),
		OpenRouter: OpenRouterConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
			BaseURL: strings.TrimRight(envString("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"), "/"),
			Model:   envString("OPENROUTER_MODEL", "openai/gpt-5.2"),
			Referer: envString("OPENROUTER_REFERER", "http://localhost:8080"),
			Title:   envString("OPENROUTER_TITLE", "PCB Defect Demo"),
			Timeout: envDuration("OPENROUTER_TIMEOUT", 60*time.Second),
		},
		Images: ImageConfig{
			FetchTimeout: envDuration("IMAGE_FETCH_TIMEOUT", 30*time.Second),
			MaxBytes:     envInt64("IMAGE_MAX_BYTES", 20<<20),
			MinSide:      int(envInt64("IMAGE_MIN_SIDE", 1)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the program misbehave.
// A missing OpenRouter key is not an error here: inspections report it at run time.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("HTTP_ADDR must not be empty"))
	}
	if c.OpenRouter.BaseURL == "" {
		errs = append(errs, errors.New("OPENROUTER_BASE_URL must not be empty"))
	}
	if c.OpenRouter.Model == "" {
		errs = append(errs, errors.New("OPENROUTER_MODEL must not be empty"))
	}
	if c.InspectionTimeout <= 0 {
		errs = append(errs, errors.New("INSPECTION_TIMEOUT must be positive"))
	}
	if c.OpenRouter.Timeout <= 0 {
		errs = append(errs, errors.New("OPENROUTER_TIMEOUT must be positive"))
	}
	if c.Images.FetchTimeout <= 0 {
		errs = append(errs, errors.New("IMAGE_FETCH_TIMEOUT must be positive"))
	}
	if c.Images.MaxBytes <= 0 {
		errs = append(errs, errors.New("IMAGE_MAX_BYTES must be positive"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q must be one of debug, info, warn, error", c.LogLevel))
	}
	return errors.Join(errs...)
}

// HasAPIKey reports whether inspections can be sent.
func (c *Config) HasAPIKey() bool {
	return c.OpenRouter.APIKey != ""
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt64 returns fallback when the variable is unset or not a number.
func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// envDuration accepts Go durations ("45s") and plain seconds ("45").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
