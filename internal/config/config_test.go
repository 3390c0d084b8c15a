package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/analytics"
	"trade-journal/internal/errors"
)

func TestLoad_CreatesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err, "template should be written")

	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Console)
	assert.Equal(t, 50, cfg.Analytics.PageSize)
	assert.Equal(t, 10, cfg.Analytics.TopSymbols)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, analytics.AllTime, cfg.DateFilter())
	assert.Equal(t, dir, cfg.Dir)
}

func TestLoad_ReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[storage]
path = "/tmp/custom.db"

[logging]
level = "debug"

[analytics]
default_date_filter = "Last 30 Days"
page_size = 25
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 25, cfg.Analytics.PageSize)
	assert.Equal(t, analytics.Last30Days, cfg.DateFilter())
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr, "unset keys keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JOURNAL_DB_PATH", "/tmp/env.db")
	t.Setenv("JOURNAL_LOG_LEVEL", "warn")
	t.Setenv("JOURNAL_SERVER_ADDR", ":9999")
	t.Setenv("JOURNAL_READ_ONLY", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Security.ReadOnly)

	assert.Equal(t, "/tmp/env.db", cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	content := `
[analytics]
default_date_filter = "Last Fortnight"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigInvalid))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Analytics.PageSize = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.Burst = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Security.AuditDir = ""
	assert.Error(t, cfg.Validate())
	cfg.Security.Audit = false
	assert.NoError(t, cfg.Validate())
}

func TestAuditConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.False(t, cfg.Security.ReadOnly)
	assert.True(t, cfg.Security.Audit)
	assert.Equal(t, filepath.Join(dir, "audit"), cfg.AuditConfig().LogDir)
}

func TestLogConfig(t *testing.T) {
	cfg := Default()
	lc := cfg.LogConfig()

	assert.Equal(t, cfg.Logging.FilePath, lc.FilePath)
	assert.Equal(t, cfg.Logging.MaxBackups, lc.MaxBackups)
}
