// Package config loads runtime settings for the Trace worker.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: TRACE_* variables, read from the process environment and
//     from an optional .env file (see parseEnv).
//  3. Optional JSON file selected via -c or -config (see parseJson).
//  4. Command-line flags (see parseFlags).
//
// Later sources override earlier ones.
//
// Supported flags
//
//	-e string     environment: production or development
//	-b string     backend base URL, overriding the environment's URL
//	-a string     address the gRPC transport listens on
//	-d string     path of the sqlite database
//	-i duration   backend health check interval (0 disables)
//	-t duration   per-request backend timeout (0 means none)
//	-log-level    debug, info, warn or error
//
// # JSON schema
//
// Intervals use timex.Duration, so they may be strings like "30s" or integer
// nanoseconds:
//
//	{
//	  "environment": "development",
//	  "backend_url": "http://localhost:8000",
//	  "listen_addr": "127.0.0.1:50061",
//	  "database_path": "/var/lib/trace/worker.db",
//	  "health_check_interval": "30s",
//	  "request_timeout": "0s",
//	  "storage_secret": "...",
//	  "google_client_id": "...",
//	  "google_client_secret": "...",
//	  "open_browser": true,
//	  "log_level": "info",
//	  "endpoints": {"summarize": "/api/summarize"}
//	}
package config
