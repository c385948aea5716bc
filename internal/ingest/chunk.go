package ingest

import "strings"

// defaultChunkSize is the target chunk length in bytes. Chunks stay under
// this bound except for a single indivisible run with no separators at all,
// which is hard-split on rune boundaries.
const defaultChunkSize = 4000

// chunkSeparators are tried in order: paragraph breaks first, then lines,
// then words. The empty separator is the hard-split fallback.
var chunkSeparators = []string{"\n\n", "\n", " ", ""}

// splitText splits text into chunks of at most defaultChunkSize bytes,
// preferring to break at paragraph boundaries.
func splitText(text string) []string {
	return splitRecursive(text, chunkSeparators, defaultChunkSize)
}

func splitRecursive(text string, seps []string, size int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	sep := seps[0]
	if sep == "" {
		return hardSplit(text, size)
	}

	parts := strings.Split(text, sep)

	var out []string
	var cur strings.Builder
	flush := func() {
		if s := cur.String(); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for _, part := range parts {
		if len(part) > size {
			// A single part too large for one chunk: recurse with the
			// next, finer-grained separator.
			flush()
			out = append(out, splitRecursive(part, seps[1:], size)...)
			continue
		}

		extra := len(part)
		if cur.Len() > 0 {
			extra += len(sep)
		}
		if cur.Len()+extra > size {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(part)
	}
	flush()
	return out
}

// hardSplit cuts text into size-byte pieces on rune boundaries.
func hardSplit(text string, size int) []string {
	var out []string
	runes := []rune(text)

	var cur strings.Builder
	for _, r := range runes {
		if cur.Len()+len(string(r)) > size {
			out = append(out, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
