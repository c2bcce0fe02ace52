package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"research-backend/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaultsAlone(t *testing.T) {
	cfg, err := config.NewLoader(t.TempDir(), config.Development).Load()
	require.NoError(t, err)

	assert.Equal(t, config.Development, cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Research.PersonaCount)
	assert.Equal(t, 3, cfg.Research.MaxRounds)
	assert.Equal(t, 2*time.Minute, cfg.Research.SessionBudget.Std())
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
}

func TestBaseFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: 9999
research:
  maxRounds: 5
  roundBudget: 90s
`)

	cfg, err := config.NewLoader(dir, config.Development).Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Research.MaxRounds)
	assert.Equal(t, 90*time.Second, cfg.Research.RoundBudget.Std())
	// Untouched values keep their defaults.
	assert.Equal(t, 3, cfg.Research.MaxTurns)
	assert.Contains(t, cfg.LoadedFrom, filepath.Join(dir, "base.yaml"))
}

func TestEnvironmentFileOverridesBase(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TAVILY_API_KEY", "tvly-test")

	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: 9999\n")
	writeFile(t, dir, "production.yaml", "server:\n  port: 8443\n")

	cfg, err := config.NewLoader(dir, config.Production).Load()
	require.NoError(t, err)

	assert.Equal(t, 8443, cfg.Server.Port)
}

func TestLocalOverridesOnlyInDevelopment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "local.yaml", "server:\n  port: 7777\n")

	dev, err := config.NewLoader(dir, config.Development).Load()
	require.NoError(t, err)
	assert.Equal(t, 7777, dev.Server.Port)

	staging, err := config.NewLoader(dir, config.Staging).Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, staging.Server.Port)
}

func TestEnvironmentVariablesWin(t *testing.T) {
	t.Setenv("SERVER_PORT", "6060")
	t.Setenv("LLM_MODEL", "gpt-4.1")
	t.Setenv("RESEARCH_ROUND_BUDGET", "3m")

	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: 9999\n")

	cfg, err := config.NewLoader(dir, config.Development).Load()
	require.NoError(t, err)

	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
	assert.Equal(t, 3*time.Minute, cfg.Research.RoundBudget.Std())
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "llm:\n  timeout: fast\n")

	_, err := config.NewLoader(dir, config.Development).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default(config.Development)
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = config.Default(config.Development)
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = config.Default(config.Development)
	cfg.Research.MaxRounds = 0
	assert.Error(t, cfg.Validate())
}

func TestProductionRequiresSecrets(t *testing.T) {
	cfg := config.Default(config.Production)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestWatcherInertOutsideDevelopment(t *testing.T) {
	cfg := config.Default(config.Staging)

	w, err := config.NewWatcher(cfg, t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	assert.Same(t, cfg, w.GetConfig())
	w.Stop()
	w.Stop() // idempotent
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: 9999\n")

	cfg, err := config.NewLoader(dir, config.Development).Load()
	require.NoError(t, err)

	w, err := config.NewWatcher(cfg, dir, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan *config.Config, 1)
	w.OnChange(func(next *config.Config) {
		select {
		case changed <- next:
		default:
		}
	})

	writeFile(t, dir, "base.yaml", "server:\n  port: 6161\n")

	assert.Eventually(t, func() bool {
		return w.GetConfig().Server.Port == 6161
	}, 5*time.Second, 50*time.Millisecond)

	select {
	case next := <-changed:
		assert.Equal(t, 6161, next.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("change callback was never invoked")
	}
}
