package config

import (
	"errors"
	"fmt"
)

// Sentinel validation errors, checkable with errors.Is.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidHistoryLength indicates the retention window is out of range.
	ErrInvalidHistoryLength = errors.New("invalid history length")

	// ErrInvalidLimit indicates a retrieval result limit is out of range.
	ErrInvalidLimit = errors.New("invalid retrieval limit")

	// ErrInvalidInterval indicates the question interval is negative.
	ErrInvalidInterval = errors.New("invalid question interval")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates an unknown SSL mode.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Range limits for tunable values.
const (
	MaxHistoryLength  = 100
	MaxRetrievalLimit = 50
)

// validSSLModes are the libpq sslmode values pgx accepts.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks all configuration values, returning the first violation
// wrapped around its sentinel.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name must not be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model must not be empty", ErrInvalidEmbedderModel)
	}

	if c.HistoryLength < 1 || c.HistoryLength > MaxHistoryLength {
		return fmt.Errorf("%w: history_length %d not in [1, %d]",
			ErrInvalidHistoryLength, c.HistoryLength, MaxHistoryLength)
	}
	if c.MinQuestionInterval < 0 {
		return fmt.Errorf("%w: min_question_interval %v is negative",
			ErrInvalidInterval, c.MinQuestionInterval)
	}

	// Zero disables a source; negative is always a mistake.
	if c.PagesLimit < 0 || c.PagesLimit > MaxRetrievalLimit {
		return fmt.Errorf("%w: pages_limit %d not in [0, %d]",
			ErrInvalidLimit, c.PagesLimit, MaxRetrievalLimit)
	}
	if c.DocstringsLimit < 0 || c.DocstringsLimit > MaxRetrievalLimit {
		return fmt.Errorf("%w: docstrings_limit %d not in [0, %d]",
			ErrInvalidLimit, c.DocstringsLimit, MaxRetrievalLimit)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: postgres_host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: postgres_port %d not in [1, 65535]",
			ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: postgres_db_name must not be empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	return nil
}
