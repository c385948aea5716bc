package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/docwise/docwise/internal/knowledge"
)

// Docstrings rebuilds the command docstrings collection from the versioned
// JSON dump. The newest parseable release is aliased under the "latest"
// tag, which is what the assistant searches.
func (p *Pipeline) Docstrings(ctx context.Context) error {
	unlock, err := p.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	p.logger.Info("ingesting command docstrings", "url", p.docstringsURL)
	text, err := p.fetchText(ctx, p.docstringsURL)
	if err != nil {
		return err
	}

	var byVersion map[string]map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &byVersion); err != nil {
		return fmt.Errorf("parsing docstrings JSON: %w", err)
	}

	latest, ok := latestVersion(byVersion)
	if !ok {
		return fmt.Errorf("no parseable version tags in %s", p.docstringsURL)
	}
	byVersion[knowledge.LatestVersion] = byVersion[latest]
	p.logger.Info("detected latest release", "version", latest)

	rows := flattenDocstrings(byVersion)
	if len(rows) == 0 {
		return fmt.Errorf("no docstring chunks parsed from %s", p.docstringsURL)
	}

	if err := p.loader.ReplaceDocstringChunks(ctx, rows); err != nil {
		return fmt.Errorf("loading docstring chunks: %w", err)
	}
	p.logger.Info("command docstrings ingested", "chunks", len(rows))
	return nil
}

// flattenDocstrings turns the version → command → docstring tree into
// chunked rows, in deterministic key order.
func flattenDocstrings(byVersion map[string]map[string]json.RawMessage) []knowledge.DocstringChunk {
	versions := sortedKeys(byVersion)

	var rows []knowledge.DocstringChunk
	for _, version := range versions {
		commands := byVersion[version]
		for _, command := range sortedKeys(commands) {
			for _, chunk := range splitText(string(commands[command])) {
				rows = append(rows, knowledge.DocstringChunk{
					Version: version,
					Command: command,
					Chunk:   chunk,
				})
			}
		}
	}
	return rows
}

// latestVersion returns the highest dotted-numeric version key. Tags that
// do not parse (like an already-present "latest" alias) are ignored.
func latestVersion[V any](byVersion map[string]V) (string, bool) {
	best := ""
	var bestParts []int
	for tag := range byVersion {
		parts, ok := parseVersion(tag)
		if !ok {
			continue
		}
		if best == "" || compareVersions(parts, bestParts) > 0 {
			best, bestParts = tag, parts
		}
	}
	return best, best != ""
}

// parseVersion parses a dotted numeric version like "1.39.0".
func parseVersion(tag string) ([]int, bool) {
	fields := strings.Split(tag, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, false
		}
		parts = append(parts, n)
	}
	return parts, len(parts) > 0
}

// compareVersions compares dotted version parts numerically; missing
// components count as zero.
func compareVersions(a, b []int) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
