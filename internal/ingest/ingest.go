// Package ingest implements the batch pipeline that feeds the knowledge
// collections: it fetches the raw documentation sources, splits them into
// chunks, and replaces the searchable tables.
//
// Two bulk jobs mirror the upstream data model — the full-text pages dump
// and the versioned command docstrings JSON — plus a single-page refresh
// path that extracts readable text from one live documentation URL.
//
// Runs are serialized across processes with a file lock; a second concurrent
// ingest fails fast instead of racing the table swap.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/docwise/docwise/internal/knowledge"
)

// maxFetchBytes caps how much of a source document is read.
const maxFetchBytes = 64 << 20 // 64 MiB

// fetchTimeout bounds one source download.
const fetchTimeout = 2 * time.Minute

// Loader is the destination for chunked rows.
// Interface defined here, by the consumer; *knowledge.Store satisfies it.
type Loader interface {
	ReplacePageChunks(ctx context.Context, rows []knowledge.PageChunk) error
	ReplacePageChunksForURL(ctx context.Context, pageURL string, rows []knowledge.PageChunk) error
	ReplaceDocstringChunks(ctx context.Context, rows []knowledge.DocstringChunk) error
}

// Config carries the pipeline's dependencies.
type Config struct {
	Loader Loader
	Logger *slog.Logger

	// PagesURL is the full-text documentation dump.
	PagesURL string
	// DocstringsURL is the versioned command docstrings JSON.
	DocstringsURL string

	// HTTPClient overrides the default client; nil uses a timeout-bounded
	// default.
	HTTPClient *http.Client

	// LockPath overrides the ingest lock file location. Empty uses the
	// per-user default.
	LockPath string
}

// Pipeline fetches, chunks, and loads documentation.
type Pipeline struct {
	loader        Loader
	logger        *slog.Logger
	pagesURL      string
	docstringsURL string
	client        *http.Client
	lockPath      string
}

// New creates a Pipeline from cfg.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Loader == nil {
		return nil, errors.New("loader is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &Pipeline{
		loader:        cfg.Loader,
		logger:        cfg.Logger,
		pagesURL:      cfg.PagesURL,
		docstringsURL: cfg.DocstringsURL,
		client:        client,
		lockPath:      cfg.LockPath,
	}, nil
}

// fetchText downloads url and returns its body as text.
func (p *Pipeline) fetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			p.logger.Warn("closing response body", "url", url, "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return string(body), nil
}
