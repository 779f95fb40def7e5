// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/applause/dashboard/internal/store"
)

// DefaultExchanges is the registry order used when neither EXCHANGES nor
// EXCHANGES_FILE is set.
var DefaultExchanges = []string{"binance", "coinbase", "bybit", "upbit", "okx"}

var displayNames = map[string]string{
	"binance":  "Binance",
	"coinbase": "Coinbase",
	"bybit":    "Bybit",
	"upbit":    "Upbit",
	"okx":      "OKX",
}

// Config holds all configuration values for the dashboard.
type Config struct {
	// Data source
	DataRoot     string
	FetchTimeout time.Duration

	// Analysis
	Exchanges    []store.Exchange
	WindowLength int
	SampleTail   int
	Highlight    string

	// Surfaces
	EnableTUI   bool
	HTTPAddr    string
	RefreshCron string

	// Logging
	LogLevel string
	LogFile  string
}

// registryFile is the YAML layout of EXCHANGES_FILE.
type registryFile struct {
	Exchanges []store.Exchange `yaml:"exchanges"`
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DataRoot:     getEnv("DATA_ROOT", "./data"),
		FetchTimeout: time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,

		WindowLength: getEnvInt("WINDOW_LENGTH", 11),
		SampleTail:   getEnvInt("SAMPLE_TAIL", 5),
		Highlight:    strings.ToUpper(getEnv("HIGHLIGHT_COIN", "")),

		EnableTUI:   getEnvBool("ENABLE_TUI", true),
		HTTPAddr:    getEnv("HTTP_ADDR", ""),
		RefreshCron: getEnv("REFRESH_CRON", ""),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),
		LogFile:  getEnv("LOG_FILE", "dashboard.log"),
	}

	if path := getEnv("EXCHANGES_FILE", ""); path != "" {
		exchanges, err := LoadRegistry(path)
		if err != nil {
			return nil, err
		}
		cfg.Exchanges = exchanges
	} else {
		cfg.Exchanges = Registry(getEnvList("EXCHANGES", DefaultExchanges))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.DataRoot == "" {
		return fmt.Errorf("DATA_ROOT is required")
	}

	if len(c.Exchanges) == 0 {
		return fmt.Errorf("at least one exchange must be configured")
	}

	seen := make(map[string]bool, len(c.Exchanges))
	for _, ex := range c.Exchanges {
		if ex.Key == "" {
			return fmt.Errorf("exchange key must not be empty")
		}
		if seen[ex.Key] {
			return fmt.Errorf("duplicate exchange %q", ex.Key)
		}
		seen[ex.Key] = true
	}

	if c.WindowLength < 2 {
		return fmt.Errorf("WINDOW_LENGTH must be at least 2")
	}

	if c.SampleTail < 1 {
		return fmt.Errorf("SAMPLE_TAIL must be at least 1")
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}

	return nil
}

// Registry builds registry entries for exchange keys, keeping their order.
func Registry(keys []string) []store.Exchange {
	exchanges := make([]store.Exchange, 0, len(keys))
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		exchanges = append(exchanges, store.Exchange{Key: key, Name: DisplayName(key)})
	}
	return exchanges
}

// LoadRegistry reads an exchange registry from a YAML file.
func LoadRegistry(path string) ([]store.Exchange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exchange registry: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse exchange registry: %w", err)
	}
	exchanges := make([]store.Exchange, 0, len(file.Exchanges))
	for _, ex := range file.Exchanges {
		ex.Key = strings.ToLower(strings.TrimSpace(ex.Key))
		if ex.Name == "" {
			ex.Name = DisplayName(ex.Key)
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, nil
}

// DisplayName returns the human name of an exchange key.
func DisplayName(key string) string {
	if name, ok := displayNames[strings.ToLower(key)]; ok {
		return name
	}
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvList retrieves a comma separated environment variable or returns a default.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
