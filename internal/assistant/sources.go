package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/docwise/docwise/internal/knowledge"
)

// Source produces one named context block for a question. Sources are
// queried concurrently by the fan-out executor; each must be safe for
// concurrent use. An empty result is valid and renders as an omitted prompt
// section upstream.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) (string, error)
}

// PageSearcher is the retrieval capability behind PagesSource.
// Interface defined here, by the consumer; *knowledge.Store satisfies it.
type PageSearcher interface {
	SearchPages(ctx context.Context, query string, limit int) ([]knowledge.PageHit, error)
}

// DocstringSearcher is the retrieval capability behind DocstringsSource.
type DocstringSearcher interface {
	SearchDocstrings(ctx context.Context, query, version string, limit int) ([]knowledge.DocstringHit, error)
}

// PagesSource searches the rendered documentation page chunks. Each hit is
// rendered as "[<page_url>]: <chunk>", newline-joined in rank order.
type PagesSource struct {
	Searcher PageSearcher
	Limit    int
}

// Name implements Source.
func (s *PagesSource) Name() string { return SectionPages }

// Search implements Source. Backend errors surface as ErrRetrieval; zero
// hits return an empty string, not an error.
func (s *PagesSource) Search(ctx context.Context, query string) (string, error) {
	hits, err := s.Searcher.SearchPages(ctx, query, s.Limit)
	if err != nil {
		return "", fmt.Errorf("%w: pages: %w", ErrRetrieval, err)
	}
	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = "[" + h.PageURL + "]: " + h.Chunk
	}
	return strings.Join(lines, "\n"), nil
}

// DocstringsSource searches command docstring chunks, filtered to one
// version tag so answers never mix API versions.
type DocstringsSource struct {
	Searcher DocstringSearcher
	Version  string // version tag filter, e.g. "latest"
	Limit    int
}

// Name implements Source.
func (s *DocstringsSource) Name() string { return SectionDocstrings }

// Search implements Source. Hits are labeled by rank position, matching the
// rendering the model was tuned against.
func (s *DocstringsSource) Search(ctx context.Context, query string) (string, error) {
	hits, err := s.Searcher.SearchDocstrings(ctx, query, s.Version, s.Limit)
	if err != nil {
		return "", fmt.Errorf("%w: docstrings: %w", ErrRetrieval, err)
	}
	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = "[Document " + strconv.Itoa(i) + "]: " + h.Chunk
	}
	return strings.Join(lines, "\n"), nil
}
