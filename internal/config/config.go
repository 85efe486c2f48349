//
// Date: 2026-02-14
// Copyright (c) 2026. All rights reserved.
//

// Package config loads tradestream's configuration from a JSON file in the
// user's home directory, with environment variables taking precedence over
// whatever is on disk. Nothing here is ambient global state beyond the file
// path override used by tests: every value flows back to the caller as an
// explicit return.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	configDirName = ".config/tradestream"
	configFile    = "config.json"
)

// configDirOverride lets tests point Load/Save at a temp directory instead
// of the real home directory. Empty means "use the real home directory".
var configDirOverride string

// SetConfigDir overrides the configuration directory used by Load and Save.
// Passing an empty string restores the default (~/.config/tradestream).
// Intended for test setup only.
func SetConfigDir(dir string) {
	configDirOverride = dir
}

// Config holds tradestream's persisted settings: provider credentials,
// the default symbol list, and the window/view-model tuning knobs exposed
// by the CLI's flags. The provider, credential, URL, symbol, NATS and
// metrics fields have environment-variable fallbacks resolved by the Get*
// accessors below; MaxTrades, WindowSize and EnhancedMetrics are read
// from the file only.
type Config struct {
	Provider        string   `json:"provider"`
	FinnhubToken    string   `json:"finnhub_token"`
	FinnhubWSURL    string   `json:"finnhub_ws_url"`
	PolygonAPIKey   string   `json:"polygon_api_key"`
	PolygonWSURL    string   `json:"polygon_ws_url"`
	Symbols         []string `json:"symbols"`
	MaxTrades       int      `json:"max_trades"`
	WindowSize      int      `json:"window_size"`
	EnhancedMetrics bool     `json:"enhanced_metrics"`
	NATSURL         string   `json:"nats_url"`
	MetricsAddr     string   `json:"metrics_addr"`
}

// DefaultConfig returns a Config with tradestream's built-in defaults: the
// production Finnhub and Polygon WebSocket endpoints, a 20-trade view-model
// cap, and a 20-point event-based window.
func DefaultConfig() *Config {
	return &Config{
		Provider:     "finnhub",
		FinnhubWSURL: "wss://ws.finnhub.io",
		PolygonWSURL: "wss://socket.polygon.io",
		MaxTrades:    20,
		WindowSize:   20,
	}
}

func configPath() (string, error) {
	dir, err := configDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func configDirPath() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// Load reads the configuration from disk. If the config file does not
// exist, it returns DefaultConfig. Returns an error if the file exists but
// cannot be read or parsed.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to disk at ~/.config/tradestream/config.json,
// creating the directory if needed. The file is written with 0600
// permissions since it may hold provider API tokens.
func Save(cfg *Config) error {
	dir, err := configDirPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetProvider returns the configured provider name, checking
// MARKET_DATA_PROVIDER first and falling back to the config file, then to
// "finnhub".
func GetProvider(cfg *Config) string {
	if v := os.Getenv("MARKET_DATA_PROVIDER"); v != "" {
		return v
	}
	if cfg.Provider != "" {
		return cfg.Provider
	}
	return "finnhub"
}

// GetFinnhubToken returns the Finnhub API token, checking FINNHUB_TOKEN
// first and falling back to the config file.
func GetFinnhubToken(cfg *Config) string {
	if v := os.Getenv("FINNHUB_TOKEN"); v != "" {
		return v
	}
	return cfg.FinnhubToken
}

// GetFinnhubWSURL returns the Finnhub WebSocket base URL, checking
// FINNHUB_WS_URL first, then the config file, then the built-in default.
func GetFinnhubWSURL(cfg *Config) string {
	if v := os.Getenv("FINNHUB_WS_URL"); v != "" {
		return v
	}
	if cfg.FinnhubWSURL != "" {
		return cfg.FinnhubWSURL
	}
	return DefaultConfig().FinnhubWSURL
}

// GetPolygonAPIKey returns the Polygon API key, checking POLYGON_API_KEY
// first and falling back to the config file.
func GetPolygonAPIKey(cfg *Config) string {
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		return v
	}
	return cfg.PolygonAPIKey
}

// GetPolygonWSURL returns the Polygon WebSocket base URL, checking
// POLYGON_WS_URL first, then the config file, then the built-in default.
func GetPolygonWSURL(cfg *Config) string {
	if v := os.Getenv("POLYGON_WS_URL"); v != "" {
		return v
	}
	if cfg.PolygonWSURL != "" {
		return cfg.PolygonWSURL
	}
	return DefaultConfig().PolygonWSURL
}

// GetSymbols returns the configured symbol list, checking the SYMBOLS
// environment variable (a comma-separated list) first and falling back to
// the config file's symbol list.
func GetSymbols(cfg *Config) []string {
	if v := os.Getenv("SYMBOLS"); v != "" {
		return splitSymbols(v)
	}
	return cfg.Symbols
}

// GetNATSURL returns the NATS publisher URL, checking NATS_URL first and
// falling back to the config file. An empty result means no NATS publisher
// should be started.
func GetNATSURL(cfg *Config) string {
	if v := os.Getenv("NATS_URL"); v != "" {
		return v
	}
	return cfg.NATSURL
}

// GetMetricsAddr returns the address the Prometheus metrics HTTP handler
// should bind to, checking METRICS_ADDR first and falling back to the
// config file. An empty result means no metrics server should be started.
func GetMetricsAddr(cfg *Config) string {
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		return v
	}
	return cfg.MetricsAddr
}

func splitSymbols(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
