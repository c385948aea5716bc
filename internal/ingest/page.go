package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/docwise/docwise/internal/knowledge"
)

// RefreshPage re-ingests a single documentation page: fetch the live HTML,
// extract the readable article text, chunk it, and replace only that page's
// rows. Used to pick up a corrected page without a full rebuild.
func (p *Pipeline) RefreshPage(ctx context.Context, pageURL string) error {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid page URL %q", pageURL)
	}

	unlock, err := p.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	p.logger.Info("refreshing documentation page", "url", pageURL)
	html, err := p.fetchText(ctx, pageURL)
	if err != nil {
		return err
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return fmt.Errorf("extracting readable text from %s: %w", pageURL, err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return fmt.Errorf("no readable text extracted from %s", pageURL)
	}

	var rows []knowledge.PageChunk
	for _, chunk := range splitText(article.TextContent) {
		rows = append(rows, knowledge.PageChunk{PageURL: pageURL, Chunk: chunk})
	}

	if err := p.loader.ReplacePageChunksForURL(ctx, pageURL, rows); err != nil {
		return fmt.Errorf("loading page chunks for %s: %w", pageURL, err)
	}
	p.logger.Info("documentation page refreshed", "url", pageURL, "chunks", len(rows))
	return nil
}
