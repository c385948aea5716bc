// Package completion wraps the Genkit language-model capability behind the
// assistant's Completer contract: a plain prompt in, either a full response
// or a fragment stream out.
//
// The client applies proactive rate limiting and retries transient provider
// errors with exponential backoff. Streaming calls are only retried while no
// fragment has been delivered yet; once output reached the caller a retry
// would duplicate it.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// Config carries the client's dependencies.
type Config struct {
	Genkit    *genkit.Genkit
	ModelName string // provider-qualified, e.g. "googleai/gemini-2.5-flash"
	Logger    *slog.Logger

	// Limiter throttles outgoing completion calls. Nil uses a default of
	// 10 requests/sec sustained with a burst of 30.
	Limiter *rate.Limiter

	// Retry settings; the zero value uses defaults.
	Retry RetryConfig
}

// validate checks required dependencies.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Client is a rate-limited, retrying completion client. Safe for concurrent
// use; all configuration is captured at construction.
type Client struct {
	g       *genkit.Genkit
	model   string
	limiter *rate.Limiter
	retry   RetryConfig
	logger  *slog.Logger
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	return &Client{
		g:       cfg.Genkit,
		model:   cfg.ModelName,
		limiter: limiter,
		retry:   retry,
		logger:  cfg.Logger,
	}, nil
}

// Complete sends prompt and returns the full response text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, nil)
}

// CompleteStream sends prompt and invokes emit for each text fragment as
// the model produces it, returning the concatenated response.
func (c *Client) CompleteStream(ctx context.Context, prompt string, emit func(ctx context.Context, fragment string) error) (string, error) {
	return c.generate(ctx, prompt, emit)
}

// generate is the shared generation path. A nil emit disables streaming.
func (c *Client) generate(ctx context.Context, prompt string, emit func(context.Context, string) error) (string, error) {
	emitted := false

	opts := []ai.GenerateOption{
		ai.WithModelName(c.model),
		ai.WithPrompt("%s", prompt),
	}
	if emit != nil {
		opts = append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			text := chunk.Text()
			if text == "" {
				return nil
			}
			emitted = true
			return emit(ctx, text)
		}))
	}

	resp, err := c.withRetry(ctx, &emitted, func() (*ai.ModelResponse, error) {
		return genkit.Generate(ctx, c.g, opts...)
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// withRetry executes attempt with rate limiting and exponential backoff.
// Each attempt waits on the limiter. Once *emitted flips true, retrying
// stops: fragments already reached the caller.
func (c *Client) withRetry(ctx context.Context, emitted *bool, attempt func() (*ai.ModelResponse, error)) (*ai.ModelResponse, error) {
	var lastErr error
	delay := c.retry.InitialInterval

	for i := 0; i <= c.retry.MaxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := attempt()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if *emitted || !retryableError(err) {
			return nil, err
		}
		if i == c.retry.MaxRetries {
			break
		}

		c.logger.Debug("retrying completion",
			"attempt", i+1,
			"delay", delay,
			"error", err,
		)
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
		delay *= 2
		if delay > c.retry.MaxInterval {
			delay = c.retry.MaxInterval
		}
	}
	return nil, fmt.Errorf("completion failed after %d attempts: %w", c.retry.MaxRetries+1, lastErr)
}
