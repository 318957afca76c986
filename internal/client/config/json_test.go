package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"environment":           "development",
		"listen_addr":           "127.0.0.1:9000",
		"health_check_interval": "10s",
		"request_timeout":       0,
		"open_browser":          false,
		"endpoints":             map[string]any{"summarize": "/api/v2/summarize"},
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := defaults()
		parseJson(&cfg)

		want := defaults()
		want.Environment = EnvDevelopment
		want.ListenAddr = "127.0.0.1:9000"
		want.HealthCheckInterval = 10 * time.Second
		want.OpenBrowser = false
		want.Endpoints.Summarize = "/api/v2/summarize"
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("short flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", pathFlag}

		cfg := defaults()
		parseJson(&cfg)
		assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	})

	t.Run("no flags leaves config untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := defaults()
		parseJson(&cfg)
		assert.Empty(t, cmp.Diff(defaults(), cfg))
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := defaults()
		require.Panics(t, func() { parseJson(&cfg) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}

		cfg := defaults()
		require.Panics(t, func() { parseJson(&cfg) })
	})
}
