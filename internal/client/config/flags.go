package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/trace/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags. It
// filters os.Args down to the flags it knows, so other parsers sharing the
// command line do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-e", "-b", "-a", "-d", "-i", "-t", "-log-level"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	env := fs.String("e", string(cfg.Environment), "environment: production or development")
	fs.StringVar(&cfg.BackendURL, "b", cfg.BackendURL, "backend base URL")
	fs.StringVar(&cfg.ListenAddr, "a", cfg.ListenAddr, "address the worker listens on")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "sqlite database path")
	fs.DurationVar(&cfg.HealthCheckInterval, "i", cfg.HealthCheckInterval, "backend health check interval")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "backend request timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.Environment = Environment(*env)
}
