package settings_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/httpgraph/internal/settings"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := settings.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "info", s.Log.Level)
	require.Equal(t, "httpgraph", s.Otel.Service)
	require.Equal(t, 3*time.Second, s.Transport.Timeout)
	require.Equal(t, 16, s.Transport.MaxConnsPerHost)
	require.Equal(t, 8, s.Runtime.Concurrency)
	require.False(t, s.Runtime.ValidateResponses)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "httpgraph.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log:
  level: debug
transport:
  timeout: 5s
runtime:
  concurrency: 4
  validate_responses: true
`), 0o644))
	t.Setenv("HTTPGRAPH_OTEL_SERVICE", "gateway")
	t.Setenv("HTTPGRAPH_RUNTIME_CONCURRENCY", "6")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	settings.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--concurrency=2", "--dedupe"}))

	s, err := settings.Load(file, fs)
	require.NoError(t, err)
	require.Equal(t, "debug", s.Log.Level)
	require.Equal(t, "gateway", s.Otel.Service)
	require.Equal(t, 5*time.Second, s.Transport.Timeout)
	require.Equal(t, 2, s.Runtime.Concurrency)
	require.True(t, s.Runtime.ValidateResponses)
	require.True(t, s.Runtime.Dedupe)
}

func TestLoad_UnchangedFlagsKeepFileValues(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log:\n  level: warn\n"), 0o644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	settings.AddFlags(fs)
	require.NoError(t, fs.Parse(nil))

	s, err := settings.Load(file, fs)
	require.NoError(t, err)
	require.Equal(t, "warn", s.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("HTTPGRAPH_LOG_LEVEL", "chatty")
	_, err := settings.Load("", nil)
	require.ErrorContains(t, err, "Level")

	t.Setenv("HTTPGRAPH_LOG_LEVEL", "info")
	t.Setenv("HTTPGRAPH_RUNTIME_CONCURRENCY", "0")
	_, err = settings.Load("", nil)
	require.ErrorContains(t, err, "Concurrency")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := settings.Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.ErrorContains(t, err, "settings: read config")
}
