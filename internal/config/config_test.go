package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applause/dashboard/internal/store"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"DATA_ROOT", "EXCHANGES", "EXCHANGES_FILE", "WINDOW_LENGTH", "SAMPLE_TAIL", "ENABLE_TUI", "HIGHLIGHT_COIN"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataRoot)
	assert.Equal(t, 11, cfg.WindowLength)
	assert.Equal(t, 5, cfg.SampleTail)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.EnableTUI)
	assert.Equal(t, []store.Exchange{
		{Key: "binance", Name: "Binance"},
		{Key: "coinbase", Name: "Coinbase"},
		{Key: "bybit", Name: "Bybit"},
		{Key: "upbit", Name: "Upbit"},
		{Key: "okx", Name: "OKX"},
	}, cfg.Exchanges)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EXCHANGES_FILE", "")
	t.Setenv("EXCHANGES", "okx, Binance,kraken")
	t.Setenv("WINDOW_LENGTH", "5")
	t.Setenv("HIGHLIGHT_COIN", "sol")
	t.Setenv("ENABLE_TUI", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.WindowLength)
	assert.Equal(t, "SOL", cfg.Highlight)
	assert.False(t, cfg.EnableTUI)
	assert.Equal(t, []store.Exchange{
		{Key: "okx", Name: "OKX"},
		{Key: "binance", Name: "Binance"},
		{Key: "kraken", Name: "Kraken"},
	}, cfg.Exchanges)
}

func TestLoadRegistryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exchanges.yaml")
	content := "exchanges:\n  - key: Upbit\n  - key: bitget\n    name: Bitget Spot\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	exchanges, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []store.Exchange{
		{Key: "upbit", Name: "Upbit"},
		{Key: "bitget", Name: "Bitget Spot"},
	}, exchanges)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DataRoot:     "./data",
			FetchTimeout: time.Second,
			Exchanges:    Registry(DefaultExchanges),
			WindowLength: 11,
			SampleTail:   5,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"no data root", func(c *Config) { c.DataRoot = "" }, false},
		{"no exchanges", func(c *Config) { c.Exchanges = nil }, false},
		{"duplicate exchange", func(c *Config) { c.Exchanges = Registry([]string{"okx", "OKX"}) }, false},
		{"short window", func(c *Config) { c.WindowLength = 1 }, false},
		{"zero tail", func(c *Config) { c.SampleTail = 0 }, false},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
