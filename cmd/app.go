package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docwise/docwise/db"
	"github.com/docwise/docwise/internal/assistant"
	"github.com/docwise/docwise/internal/completion"
	"github.com/docwise/docwise/internal/config"
	"github.com/docwise/docwise/internal/ingest"
	"github.com/docwise/docwise/internal/knowledge"
	"github.com/docwise/docwise/internal/log"
	"github.com/docwise/docwise/internal/observability"
)

// app bundles the wired components shared by the commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	genkit   *genkit.Genkit
	embedder ai.Embedder
	pool     *pgxpool.Pool
	store    *knowledge.Store
	engine   *assistant.Engine

	shutdownTracing func(context.Context) error
}

// setup loads configuration and wires every component the commands need.
// Call close when done.
func setup(ctx context.Context) (_ *app, retErr error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := checkAPIKey(); err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: log.New(log.Config{}),
	}
	defer func() {
		if retErr != nil {
			a.close()
		}
	}()

	// Tracing registers on Genkit's tracer provider, so it has to come
	// before genkit.Init.
	if cfg.Tracing.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			AgentHost:   cfg.Tracing.AgentHost,
			Environment: cfg.Tracing.Environment,
			ServiceName: cfg.Tracing.ServiceName,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
		a.shutdownTracing = shutdown
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}
	a.genkit = g
	a.embedder = googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if a.embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	a.store = knowledge.New(pool, a.embedder, a.logger)

	completer, err := completion.New(completion.Config{
		Genkit:    g,
		ModelName: cfg.ModelName,
		Logger:    a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	// A zero limit disables that context source.
	var sources []assistant.Source
	if cfg.PagesLimit > 0 {
		sources = append(sources, &assistant.PagesSource{
			Searcher: a.store,
			Limit:    cfg.PagesLimit,
		})
	}
	if cfg.DocstringsLimit > 0 {
		sources = append(sources, &assistant.DocstringsSource{
			Searcher: a.store,
			Version:  cfg.DocstringsVersion,
			Limit:    cfg.DocstringsLimit,
		})
	}

	engine, err := assistant.New(assistant.Config{
		Completer:           completer,
		Logger:              a.logger,
		Sources:             sources,
		SummarizeHistory:    cfg.SummarizeHistory,
		HistoryLength:       cfg.HistoryLength,
		MinQuestionInterval: cfg.MinQuestionInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("creating assistant engine: %w", err)
	}
	a.engine = engine

	return a, nil
}

// newPipeline wires the ingest pipeline over the app's knowledge store.
func (a *app) newPipeline() (*ingest.Pipeline, error) {
	return ingest.New(ingest.Config{
		Loader:        a.store,
		Logger:        a.logger,
		PagesURL:      a.cfg.PagesURL,
		DocstringsURL: a.cfg.DocstringsURL,
	})
}

// close releases everything setup opened. Safe on a partially built app.
func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.Warn("shutting down tracing", "error", err)
		}
	}
}

// openPool runs migrations and opens the connection pool.
func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.ConnURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// checkAPIKey verifies the Gemini API key is present before any model call.
func checkAPIKey() error {
	if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
		return nil
	}
	fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Please run:")
	fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
	return errors.New("GEMINI_API_KEY not set")
}
