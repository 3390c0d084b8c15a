// Package config provides configuration management for the trading journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"trade-journal/internal/analytics"
	"trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/security"
)

// ConfigFileName is the base name of the main config file.
const ConfigFileName = "config"

// Config holds all application configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Server    ServerConfig    `mapstructure:"server"`
	UI        UIConfig        `mapstructure:"ui"`
	Security  SecurityConfig  `mapstructure:"security"`

	// Dir is the directory the config was loaded from.
	Dir string `mapstructure:"-"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	Path string `mapstructure:"path"` // SQLite database file
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// AnalyticsConfig holds analytics defaults.
type AnalyticsConfig struct {
	DefaultDateFilter string `mapstructure:"default_date_filter"`
	TopSymbols        int    `mapstructure:"top_symbols"`
	Workers           int    `mapstructure:"workers"`            // 0 means NumCPU
	ParallelThreshold int    `mapstructure:"parallel_threshold"` // trades before grouping goes parallel
	PageSize          int    `mapstructure:"page_size"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	RateLimit    float64       `mapstructure:"rate_limit"` // requests per second
	Burst        int           `mapstructure:"burst"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SecurityConfig holds read-only mode and audit trail settings.
type SecurityConfig struct {
	ReadOnly bool   `mapstructure:"read_only"`
	Audit    bool   `mapstructure:"audit"`
	AuditDir string `mapstructure:"audit_dir"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	Currency     string `mapstructure:"currency"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trade-journal"
	}
	return filepath.Join(home, ".config", "trade-journal")
}

// Path returns the path of the main config file in configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, ConfigFileName+".toml")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing config
// file is replaced by the commented template before loading.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{Dir: configDir}
	if err := loadConfigFile(configDir, ConfigFileName, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("storage.path", filepath.Join(configDir, "journal.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "journal.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("analytics.default_date_filter", string(analytics.AllTime))
	v.SetDefault("analytics.top_symbols", analytics.DefaultTopSymbols)
	v.SetDefault("analytics.workers", 0)
	v.SetDefault("analytics.parallel_threshold", 1000)
	v.SetDefault("analytics.page_size", 50)

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.burst", 40)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006 15:04")
	v.SetDefault("ui.currency", "USD")

	v.SetDefault("security.read_only", false)
	v.SetDefault("security.audit", true)
	v.SetDefault("security.audit_dir", filepath.Join(configDir, "audit"))
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	dir := DefaultConfigDir()
	v := viper.New()
	setDefaults(v, dir)

	cfg := &Config{Dir: dir}
	_ = v.Unmarshal(cfg)
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JOURNAL_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("JOURNAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JOURNAL_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("JOURNAL_READ_ONLY"); v != "" {
		cfg.Security.ReadOnly = v == "1" || v == "true"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "storage.path must be set")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(errors.ErrConfigInvalid, "invalid log level: %s (must be debug, info, warn or error)", c.Logging.Level)
	}

	if _, err := analytics.ParseDateFilter(c.Analytics.DefaultDateFilter); err != nil {
		return errors.Wrap(errors.ErrConfigInvalid, err.Error())
	}
	if c.Analytics.TopSymbols < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "top_symbols must be non-negative")
	}
	if c.Analytics.Workers < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "workers must be non-negative")
	}
	if c.Analytics.PageSize <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "page_size must be positive")
	}

	if c.Server.RateLimit <= 0 || c.Server.Burst <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "rate_limit and burst must be positive")
	}

	if c.Security.Audit && c.Security.AuditDir == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "audit_dir must be set when audit is enabled")
	}

	return nil
}

// DateFilter returns the configured default date filter.
func (c *Config) DateFilter() analytics.DateFilter {
	f, err := analytics.ParseDateFilter(c.Analytics.DefaultDateFilter)
	if err != nil {
		return analytics.AllTime
	}
	return f
}

// LogConfig converts the logging section for the logging package.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}

// AuditConfig converts the security section for the audit logger.
func (c *Config) AuditConfig() security.AuditConfig {
	cfg := security.DefaultAuditConfig()
	if c.Security.AuditDir != "" {
		cfg.LogDir = c.Security.AuditDir
	}
	return cfg
}
