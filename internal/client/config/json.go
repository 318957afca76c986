package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/trace/internal/client/gateway"
	"github.com/dmitrijs2005/trace/internal/flagx"
	"github.com/dmitrijs2005/trace/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell an absent key from a zero value.
type JsonConfig struct {
	Environment         string             `json:"environment"`
	BackendURL          string             `json:"backend_url"`
	ListenAddr          string             `json:"listen_addr"`
	DatabasePath        string             `json:"database_path"`
	HealthCheckInterval *timex.Duration    `json:"health_check_interval"`
	RequestTimeout      *timex.Duration    `json:"request_timeout"`
	StorageSecret       string             `json:"storage_secret"`
	GoogleClientID      string             `json:"google_client_id"`
	GoogleClientSecret  string             `json:"google_client_secret"`
	OpenBrowser         *bool              `json:"open_browser"`
	LogLevel            string             `json:"log_level"`
	Endpoints           *gateway.Endpoints `json:"endpoints"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. Without either flag it does nothing. Read or decode errors
// panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	// Endpoints start from the current values so a partial object only
	// replaces the paths it names.
	endpoints := cfg.Endpoints
	jc := JsonConfig{Endpoints: &endpoints}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	if jc.Environment != "" {
		cfg.Environment = Environment(jc.Environment)
	}
	set(&cfg.BackendURL, jc.BackendURL)
	set(&cfg.ListenAddr, jc.ListenAddr)
	set(&cfg.DatabasePath, jc.DatabasePath)
	set(&cfg.StorageSecret, jc.StorageSecret)
	set(&cfg.GoogleClientID, jc.GoogleClientID)
	set(&cfg.GoogleClientSecret, jc.GoogleClientSecret)
	set(&cfg.LogLevel, jc.LogLevel)
	if jc.HealthCheckInterval != nil {
		cfg.HealthCheckInterval = jc.HealthCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OpenBrowser != nil {
		cfg.OpenBrowser = *jc.OpenBrowser
	}
	if jc.Endpoints != nil {
		cfg.Endpoints = *jc.Endpoints
	}
}
