// Package knowledge provides the searchable documentation collections
// backing the assistant: rendered page chunks and command docstring chunks,
// stored in PostgreSQL with pgvector embeddings.
//
// Search embeds the query text and ranks chunks by cosine distance; results
// come back in rank order and are never re-sorted by the caller. Loading is
// done by the ingest pipeline, which replaces whole collections atomically.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DefaultLimit caps search results when the caller passes a non-positive
// limit.
const DefaultLimit = 10

// embedBatchSize bounds how many chunks are embedded per provider call
// during ingestion.
const embedBatchSize = 64

// Store manages the two documentation collections. It is safe for
// concurrent use; all state lives in PostgreSQL.
type Store struct {
	pool     *pgxpool.Pool
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store. The embedder generates query and chunk vectors.
func New(pool *pgxpool.Pool, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, embedder: embedder, logger: logger}
}

// SearchPages returns the top-ranked documentation page chunks for query,
// in rank order. Zero hits is valid and returns an empty slice.
func (s *Store) SearchPages(ctx context.Context, query string, limit int) ([]PageHit, error) {
	vec, err := s.embedOne(ctx, query)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT page_url, page_chunk
		 FROM pages_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching pages: %w", err)
	}
	defer rows.Close()

	var hits []PageHit
	for rows.Next() {
		var h PageHit
		if err := rows.Scan(&h.PageURL, &h.Chunk); err != nil {
			return nil, fmt.Errorf("scanning page hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading page hits: %w", err)
	}
	return hits, nil
}

// SearchDocstrings returns the top-ranked docstring chunks for query,
// restricted by an equality filter on the version tag.
func (s *Store) SearchDocstrings(ctx context.Context, query, version string, limit int) ([]DocstringHit, error) {
	vec, err := s.embedOne(ctx, query)
	if err != nil {
		return nil, err
	}
	if version == "" {
		version = LatestVersion
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT streamlit_version, command_name, docstring_chunk
		 FROM docstring_chunks
		 WHERE streamlit_version = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, version, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching docstrings: %w", err)
	}
	defer rows.Close()

	var hits []DocstringHit
	for rows.Next() {
		var h DocstringHit
		if err := rows.Scan(&h.Version, &h.Command, &h.Chunk); err != nil {
			return nil, fmt.Errorf("scanning docstring hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading docstring hits: %w", err)
	}
	return hits, nil
}

// ReplacePageChunks atomically swaps the whole pages collection for rows.
// Mirrors the batch pipeline's table rebuild: stale chunks never coexist
// with fresh ones.
func (s *Store) ReplacePageChunks(ctx context.Context, rows []PageChunk) error {
	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.Chunk
	}
	vecs, err := s.embedAll(ctx, texts)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM pages_chunks`); err != nil {
			return fmt.Errorf("clearing pages: %w", err)
		}
		batch := &pgx.Batch{}
		for i, r := range rows {
			batch.Queue(
				`INSERT INTO pages_chunks (page_url, page_chunk, embedding) VALUES ($1, $2, $3)`,
				r.PageURL, r.Chunk, vecs[i],
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting pages: %w", err)
		}
		return nil
	})
}

// ReplacePageChunksForURL replaces only the chunks of a single page,
// used by the single-page refresh path.
func (s *Store) ReplacePageChunksForURL(ctx context.Context, pageURL string, rows []PageChunk) error {
	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.Chunk
	}
	vecs, err := s.embedAll(ctx, texts)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM pages_chunks WHERE page_url = $1`, pageURL); err != nil {
			return fmt.Errorf("clearing page %s: %w", pageURL, err)
		}
		batch := &pgx.Batch{}
		for i, r := range rows {
			batch.Queue(
				`INSERT INTO pages_chunks (page_url, page_chunk, embedding) VALUES ($1, $2, $3)`,
				r.PageURL, r.Chunk, vecs[i],
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting page %s: %w", pageURL, err)
		}
		return nil
	})
}

// ReplaceDocstringChunks atomically swaps the whole docstrings collection.
func (s *Store) ReplaceDocstringChunks(ctx context.Context, rows []DocstringChunk) error {
	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.Chunk
	}
	vecs, err := s.embedAll(ctx, texts)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM docstring_chunks`); err != nil {
			return fmt.Errorf("clearing docstrings: %w", err)
		}
		batch := &pgx.Batch{}
		for i, r := range rows {
			batch.Queue(
				`INSERT INTO docstring_chunks (streamlit_version, command_name, docstring_chunk, embedding) VALUES ($1, $2, $3, $4)`,
				r.Version, r.Command, r.Chunk, vecs[i],
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting docstrings: %w", err)
		}
		return nil
	})
}

// inTx runs fn inside a transaction with commit/rollback handling.
func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Warn("transaction rollback failed", "error", rbErr)
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// embedOne embeds a single text.
func (s *Store) embedOne(ctx context.Context, text string) (pgvector.Vector, error) {
	vecs, err := s.embedAll(ctx, []string{text})
	if err != nil {
		return pgvector.Vector{}, err
	}
	return vecs[0], nil
}

// embedAll embeds texts in provider-sized batches, preserving order.
func (s *Store) embedAll(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	vecs := make([]pgvector.Vector, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))

		docs := make([]*ai.Document, 0, end-start)
		for _, t := range texts[start:end] {
			docs = append(docs, ai.DocumentFromText(t, nil))
		}
		resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
		if err != nil {
			return nil, fmt.Errorf("generating embeddings: %w", err)
		}
		if len(resp.Embeddings) != len(docs) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(resp.Embeddings), len(docs))
		}
		for _, e := range resp.Embeddings {
			if len(e.Embedding) == 0 {
				return nil, errors.New("embedder returned empty vector")
			}
			vecs = append(vecs, pgvector.NewVector(e.Embedding))
		}
	}
	return vecs, nil
}
