// Package config provides configuration management for the quote watcher.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "kabuka-watcher/internal/errors"
	"kabuka-watcher/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// DatabaseConfig holds persistence configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CrawlConfig holds fetch and extraction configuration.
type CrawlConfig struct {
	Selector       string        `mapstructure:"selector"`
	CurrencyToken  string        `mapstructure:"currency_token"`
	GroupSeparator string        `mapstructure:"group_separator"`
	Timeout        time.Duration `mapstructure:"timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequireHTTPS   bool          `mapstructure:"require_https"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	Concurrency    int           `mapstructure:"concurrency"`
}

// ServerConfig holds REST server configuration.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/kabuka-watcher"
	}
	return filepath.Join(home, ".config", "kabuka-watcher")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by the commented template before loading.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{Dir: configDir}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDirDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.selector", ".kabuka")
	v.SetDefault("crawl.currency_token", "円")
	v.SetDefault("crawl.group_separator", ",")
	v.SetDefault("crawl.timeout", "15s")
	v.SetDefault("crawl.user_agent", "kabuka-watcher/0.1")
	v.SetDefault("crawl.require_https", true)
	v.SetDefault("crawl.max_body_bytes", 8<<20)
	v.SetDefault("crawl.concurrency", 4)
	v.SetDefault("server.addr", "127.0.0.1:3000")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.file", true)
	v.SetDefault("log.max_size", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

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

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KABUKA_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("KABUKA_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("KABUKA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("KABUKA_CRAWL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Crawl.Timeout = d
		}
	}
}

func applyDirDefaults(cfg *Config) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(cfg.Dir, "kabuka.db")
	}
	if cfg.Log.FilePath == "" {
		cfg.Log.FilePath = filepath.Join(cfg.Dir, "logs", "kabuka.log")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Crawl.Selector) == "" {
		return fmt.Errorf("%w: crawl.selector must not be empty", apperrors.ErrConfigInvalid)
	}
	if c.Crawl.Timeout <= 0 {
		return fmt.Errorf("%w: crawl.timeout must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Crawl.Concurrency <= 0 {
		return fmt.Errorf("%w: crawl.concurrency must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Crawl.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: crawl.max_body_bytes must be non-negative", apperrors.ErrConfigInvalid)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: invalid log level: %s (must be debug, info, warn or error)", apperrors.ErrConfigInvalid, c.Log.Level)
	}
	return nil
}

// Logging converts the [log] section into a logging.LogConfig.
func (c *Config) Logging() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Log.Level,
		Console:    c.Log.Console,
		File:       c.Log.File,
		FilePath:   c.Log.FilePath,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
	}
}
