// Package config provides application configuration with multi-source
// priority:
//
//  1. Environment variables (DOCWISE_*, runtime override)
//  2. Config file (~/.docwise/config.yaml)
//  3. Default values
//
// Sentinel errors from validation.go support errors.Is checking; sensitive
// fields (the Postgres password) are never logged.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultModelName     = "googleai/gemini-2.5-flash"
	DefaultEmbedderModel = "gemini-embedding-001"

	DefaultHistoryLength       = 5
	DefaultPagesLimit          = 10
	DefaultDocstringsLimit     = 10
	DefaultMinQuestionInterval = 3 * time.Second

	DefaultHTTPAddr = "127.0.0.1:3400"

	// Default ingestion sources: the full-text documentation dump and the
	// versioned command docstrings JSON.
	DefaultPagesURL      = "https://docs.streamlit.io/llms-full.txt"
	DefaultDocstringsURL = "https://raw.githubusercontent.com/streamlit/docs/refs/heads/main/python/streamlit.json"
)

// configDirName is the per-user configuration directory.
const configDirName = ".docwise"

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	AgentHost   string `mapstructure:"agent_host"`   // OTLP HTTP endpoint, default localhost:4318
	Environment string `mapstructure:"environment"`  // deployment environment tag
	ServiceName string `mapstructure:"service_name"` // service name in the APM backend
}

// Config stores application configuration.
type Config struct {
	// Model configuration
	ModelName     string `mapstructure:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model"`

	// Conversation tuning
	HistoryLength       int           `mapstructure:"history_length"`
	SummarizeHistory    bool          `mapstructure:"summarize_history"`
	MinQuestionInterval time.Duration `mapstructure:"min_question_interval"`

	// Retrieval tuning. A zero limit disables that context source.
	PagesLimit        int    `mapstructure:"pages_limit"`
	DocstringsLimit   int    `mapstructure:"docstrings_limit"`
	DocstringsVersion string `mapstructure:"docstrings_version"`

	// Storage
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Ingestion sources
	PagesURL      string `mapstructure:"pages_url"`
	DocstringsURL string `mapstructure:"docstrings_url"`

	// Serve mode
	HTTPAddr string `mapstructure:"http_addr"`

	// Observability
	Tracing TracingConfig `mapstructure:"tracing"`
}

// Load reads configuration from file, environment and defaults, validates
// it, and returns the result.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, configDirName)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("DOCWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers default values on v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	v.SetDefault("history_length", DefaultHistoryLength)
	v.SetDefault("summarize_history", true)
	v.SetDefault("min_question_interval", DefaultMinQuestionInterval)

	v.SetDefault("pages_limit", DefaultPagesLimit)
	v.SetDefault("docstrings_limit", DefaultDocstringsLimit)
	v.SetDefault("docstrings_version", "latest")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "docwise")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_db_name", "docwise")
	v.SetDefault("postgres_ssl_mode", "prefer")

	v.SetDefault("pages_url", DefaultPagesURL)
	v.SetDefault("docstrings_url", DefaultDocstringsURL)

	v.SetDefault("http_addr", DefaultHTTPAddr)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.agent_host", "localhost:4318")
	v.SetDefault("tracing.environment", "dev")
	v.SetDefault("tracing.service_name", "docwise")
}

// ConnString returns the keyword/value connection string for pgxpool.
func (c *Config) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword,
		c.PostgresDBName, c.PostgresSSLMode)
}

// ConnURL returns the postgres:// URL form used by golang-migrate.
func (c *Config) ConnURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   "/" + c.PostgresDBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
