package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dmitrijs2005/trace/internal/client/gateway"
)

type Environment string

const (
	EnvProduction  Environment = "production"
	EnvDevelopment Environment = "development"
)

// BackendURLs are the base URLs selected by Environment.
var BackendURLs = map[Environment]string{
	EnvProduction:  "https://trace-production-79d5.up.railway.app",
	EnvDevelopment: "http://localhost:8000",
}

// Config holds runtime settings for the worker.
//
// BackendURL, when set, wins over the URL of Environment. A backendUrl value
// in durable storage wins over both at request time.
type Config struct {
	Environment         Environment
	BackendURL          string
	ListenAddr          string
	DatabasePath        string
	HealthCheckInterval time.Duration
	RequestTimeout      time.Duration
	StorageSecret       string
	GoogleClientID      string
	GoogleClientSecret  string
	OpenBrowser         bool
	LogLevel            string
	Endpoints           gateway.Endpoints
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Environment = EnvProduction
	c.BackendURL = ""
	c.ListenAddr = "127.0.0.1:50061"
	c.DatabasePath = filepath.Join(xdg.DataHome, "trace", "worker.db")
	c.HealthCheckInterval = 30 * time.Second
	c.RequestTimeout = 0
	c.OpenBrowser = true
	c.LogLevel = "info"
	c.Endpoints = gateway.DefaultEndpoints()
}

// LoadConfig constructs a Config, applies defaults, then overlays the
// environment, JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, envLookup(".env"))
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// BaseURL is the configured backend URL.
func (c *Config) BaseURL() string {
	if c.BackendURL != "" {
		return strings.TrimRight(c.BackendURL, "/")
	}
	return BackendURLs[c.Environment]
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (c *Config) Validate() error {
	if _, ok := BackendURLs[c.Environment]; !ok {
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.HealthCheckInterval < 0 || c.RequestTimeout < 0 {
		return fmt.Errorf("intervals must not be negative")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
