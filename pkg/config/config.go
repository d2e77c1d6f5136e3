package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment   string
	IsProduction  bool
	IsDevelopment bool

	// Logging
	LogLevel string
	LogDir   string

	// Crawl
	Source       string
	ProfileFile  string
	SeedURL      string
	OutputFile   string
	HTTPTimeout  time.Duration
	UserAgent    string
	MaxBodyBytes int64
	MaxPages     int
	DetectCycles bool

	// Optional stores
	MongoDBURI      string
	MongoDBDatabase string
	SQLitePath      string

	// Metrics
	MetricsTextfile string

	// Discord
	DiscordToken     string
	DiscordChannelID string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		LogDir:           getEnv("LOG_DIR", ""),
		Source:           getEnv("SOURCE", "books"),
		ProfileFile:      getEnv("PROFILE_FILE", ""),
		SeedURL:          getEnv("SEED_URL", ""),
		OutputFile:       getEnv("OUTPUT_FILE", "books_data.csv"),
		UserAgent:        getEnv("USER_AGENT", ""),
		MongoDBURI:       getEnv("MONGODB_URI", ""),
		MongoDBDatabase:  getEnv("MONGODB_DATABASE", "bookscraper"),
		SQLitePath:       getEnv("SQLITE_PATH", ""),
		MetricsTextfile:  getEnv("METRICS_TEXTFILE", ""),
		DiscordToken:     getEnv("DISCORD_TOKEN", ""),
		DiscordChannelID: getEnv("DISCORD_CHANNEL_ID", ""),
	}

	// Derived properties
	cfg.IsProduction = cfg.Environment == "production"
	cfg.IsDevelopment = !cfg.IsProduction

	// Parse numeric values
	timeoutSeconds, err := strconv.Atoi(getEnv("HTTP_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("HTTP_TIMEOUT_SECONDS: %w", err)
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "10485760"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_BODY_BYTES: %w", err)
	}

	cfg.MaxPages, err = strconv.Atoi(getEnv("CRAWL_MAX_PAGES", "0"))
	if err != nil {
		return nil, fmt.Errorf("CRAWL_MAX_PAGES: %w", err)
	}

	cfg.DetectCycles, err = strconv.ParseBool(getEnv("CRAWL_DETECT_CYCLES", "true"))
	if err != nil {
		return nil, fmt.Errorf("CRAWL_DETECT_CYCLES: %w", err)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.SeedURL != "" {
		if err := ValidateSeedURL(c.SeedURL); err != nil {
			return fmt.Errorf("SEED_URL: %w", err)
		}
	}
	if c.OutputFile == "" {
		return errors.New("OUTPUT_FILE must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	if c.MaxPages < 0 {
		return errors.New("CRAWL_MAX_PAGES must not be negative")
	}
	if c.DiscordToken != "" && c.DiscordChannelID == "" {
		return errors.New("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}

	return nil
}

// ValidateSeedURL checks that raw is an absolute http or https URL.
func ValidateSeedURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
