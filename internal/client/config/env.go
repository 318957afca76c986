package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envLookup resolves a variable from the process environment first, then
// from the dotenv file at path. A missing file is not an error.
func envLookup(path string) func(string) (string, bool) {
	file, err := godotenv.Read(path)
	if err != nil {
		file = map[string]string{}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}
}

// parseEnv overlays Config with TRACE_* variables. Unparseable durations or
// booleans panic, like the JSON and flag loaders.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	var env string
	str("TRACE_ENVIRONMENT", &env)
	if env != "" {
		cfg.Environment = Environment(env)
	}
	str("TRACE_BACKEND_URL", &cfg.BackendURL)
	str("TRACE_LISTEN_ADDR", &cfg.ListenAddr)
	str("TRACE_DATABASE_PATH", &cfg.DatabasePath)
	dur("TRACE_HEALTH_CHECK_INTERVAL", &cfg.HealthCheckInterval)
	dur("TRACE_REQUEST_TIMEOUT", &cfg.RequestTimeout)
	str("TRACE_STORAGE_SECRET", &cfg.StorageSecret)
	str("TRACE_GOOGLE_CLIENT_ID", &cfg.GoogleClientID)
	str("TRACE_GOOGLE_CLIENT_SECRET", &cfg.GoogleClientSecret)
	str("TRACE_LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup("TRACE_OPEN_BROWSER"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		cfg.OpenBrowser = b
	}
}
