package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "loom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, InstantiationDirect, cfg.Instantiation)
	assert.Equal(t, DisposalFailFast, cfg.Disposal)
	assert.Equal(t, PhaseBeforeInstantiation, cfg.Proxy.Phase)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
logging:
  level: debug
  format: console
instantiation: subclass
disposal: continue
proxy:
  target_type: true
  phase: after-initialization
metrics:
  enabled: true
  namespace: shop
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, LoggingConfig{Level: "debug", Format: "console"}, cfg.Logging)
	assert.Equal(t, InstantiationSubclass, cfg.Instantiation)
	assert.Equal(t, DisposalContinue, cfg.Disposal)
	assert.True(t, cfg.Proxy.TargetType)
	assert.Equal(t, PhaseAfterInitialization, cfg.Proxy.Phase)
	assert.Equal(t, MetricsConfig{Enabled: true, Namespace: "shop"}, cfg.Metrics)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "disposal: continue\n"))
	require.NoError(t, err)

	assert.Equal(t, DisposalContinue, cfg.Disposal)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, InstantiationDirect, cfg.Instantiation)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("LOOM_LOGGING_LEVEL", "warn")
	t.Setenv("LOOM_PROXY_PHASE", "after-initialization")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, PhaseAfterInitialization, cfg.Proxy.Phase)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown disposal", content: "disposal: sometimes\n"},
		{name: "unknown level", content: "logging:\n  level: loud\n"},
		{name: "unknown phase", content: "proxy:\n  phase: whenever\n"},
		{name: "metrics without namespace", content: "metrics:\n  enabled: true\n  namespace: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, "validation failed")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger(LoggingConfig{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0))

	_, err = NewLogger(LoggingConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)

	_, err = NewLogger(LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
