package ingest

import (
	"context"
	"fmt"
	"regexp"

	"github.com/docwise/docwise/internal/knowledge"
)

// pageSepRe splits the full-text dump into documentation pages.
var pageSepRe = regexp.MustCompile(`(?m)^---$`)

// sourceURLRe extracts the page's canonical URL from its "Source:" line.
var sourceURLRe = regexp.MustCompile(`(?m)^Source: (.*)$`)

// Pages rebuilds the documentation pages collection: fetch the full-text
// dump, split it into pages, chunk each page, and atomically replace the
// table.
func (p *Pipeline) Pages(ctx context.Context) error {
	unlock, err := p.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	p.logger.Info("ingesting documentation pages", "url", p.pagesURL)
	text, err := p.fetchText(ctx, p.pagesURL)
	if err != nil {
		return err
	}

	rows := parsePages(text)
	if len(rows) == 0 {
		return fmt.Errorf("no page chunks parsed from %s", p.pagesURL)
	}

	if err := p.loader.ReplacePageChunks(ctx, rows); err != nil {
		return fmt.Errorf("loading page chunks: %w", err)
	}
	p.logger.Info("documentation pages ingested", "chunks", len(rows))
	return nil
}

// parsePages splits the dump into pages, pairing each chunk with the page's
// source URL. Pages without a Source line keep an empty URL rather than
// being dropped — their text is still worth retrieving.
func parsePages(text string) []knowledge.PageChunk {
	var rows []knowledge.PageChunk
	for _, pageStr := range pageSepRe.Split(text, -1) {
		var url string
		if m := sourceURLRe.FindStringSubmatch(pageStr); m != nil {
			url = m[1]
		}
		for _, chunk := range splitText(pageStr) {
			rows = append(rows, knowledge.PageChunk{PageURL: url, Chunk: chunk})
		}
	}
	return rows
}
