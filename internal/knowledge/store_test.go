package knowledge

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/docwise/docwise/internal/log"
	"github.com/docwise/docwise/internal/testutil"
)

// embeddingDim matches the vector column width in the schema.
const embeddingDim = 768

// basisEmbedder is a deterministic ai.Embedder: each known text maps to a
// fixed basis vector, so cosine ranking in tests is exact and stable.
type basisEmbedder struct {
	axes map[string]int
}

func (e *basisEmbedder) Name() string { return "basis-embedder" }

func (e *basisEmbedder) Register(api.Registry) {}

func (e *basisEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		text := ""
		if len(doc.Content) > 0 {
			text = doc.Content[0].Text
		}
		vec := make([]float32, embeddingDim)
		axis, ok := e.axes[text]
		if !ok {
			axis = embeddingDim - 1
		}
		vec[axis] = 1
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: vec})
	}
	return resp, nil
}

func setupStore(t *testing.T, embedder ai.Embedder) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("requires Docker")
	}
	pool := testutil.SetupTestDB(t)
	return New(pool, embedder, log.NewNop())
}

func TestStorePagesRoundTrip(t *testing.T) {
	embedder := &basisEmbedder{axes: map[string]int{
		"caching chunk":    0,
		"deployment chunk": 1,
		"widget chunk":     2,
		"how do I cache":   0, // query lands on the caching axis
	}}
	store := setupStore(t, embedder)
	ctx := context.Background()

	rows := []PageChunk{
		{PageURL: "https://docs.streamlit.io/caching", Chunk: "caching chunk"},
		{PageURL: "https://docs.streamlit.io/deploy", Chunk: "deployment chunk"},
		{PageURL: "https://docs.streamlit.io/widgets", Chunk: "widget chunk"},
	}
	if err := store.ReplacePageChunks(ctx, rows); err != nil {
		t.Fatalf("ReplacePageChunks() error = %v", err)
	}

	hits, err := store.SearchPages(ctx, "how do I cache", 2)
	if err != nil {
		t.Fatalf("SearchPages() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].PageURL != "https://docs.streamlit.io/caching" || hits[0].Chunk != "caching chunk" {
		t.Errorf("top hit = %+v, want the caching chunk first", hits[0])
	}

	// Replace swaps the whole collection.
	if err := store.ReplacePageChunks(ctx, rows[:1]); err != nil {
		t.Fatalf("second ReplacePageChunks() error = %v", err)
	}
	hits, err = store.SearchPages(ctx, "how do I cache", 10)
	if err != nil {
		t.Fatalf("SearchPages() after replace error = %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("len(hits) after replace = %d, want 1", len(hits))
	}
}

func TestStoreReplacePageChunksForURL(t *testing.T) {
	embedder := &basisEmbedder{axes: map[string]int{
		"original text":  0,
		"refreshed text": 0,
		"other page":     1,
		"query":          0,
	}}
	store := setupStore(t, embedder)
	ctx := context.Background()

	const target = "https://docs.streamlit.io/caching"
	err := store.ReplacePageChunks(ctx, []PageChunk{
		{PageURL: target, Chunk: "original text"},
		{PageURL: "https://docs.streamlit.io/other", Chunk: "other page"},
	})
	if err != nil {
		t.Fatalf("ReplacePageChunks() error = %v", err)
	}

	err = store.ReplacePageChunksForURL(ctx, target, []PageChunk{
		{PageURL: target, Chunk: "refreshed text"},
	})
	if err != nil {
		t.Fatalf("ReplacePageChunksForURL() error = %v", err)
	}

	hits, err := store.SearchPages(ctx, "query", 10)
	if err != nil {
		t.Fatalf("SearchPages() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2 (refreshed plus other)", len(hits))
	}
	for _, h := range hits {
		if h.PageURL == target && h.Chunk != "refreshed text" {
			t.Errorf("target page chunk = %q, want refreshed text", h.Chunk)
		}
	}
}

func TestStoreDocstringsVersionFilter(t *testing.T) {
	embedder := &basisEmbedder{axes: map[string]int{
		"latest write docs": 0,
		"old write docs":    0,
		"query":             0,
	}}
	store := setupStore(t, embedder)
	ctx := context.Background()

	err := store.ReplaceDocstringChunks(ctx, []DocstringChunk{
		{Version: LatestVersion, Command: "st.write", Chunk: "latest write docs"},
		{Version: "1.38.0", Command: "st.write", Chunk: "old write docs"},
	})
	if err != nil {
		t.Fatalf("ReplaceDocstringChunks() error = %v", err)
	}

	hits, err := store.SearchDocstrings(ctx, "query", LatestVersion, 10)
	if err != nil {
		t.Fatalf("SearchDocstrings() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("len(hits) = %d, want only the latest version", len(hits))
	}
	if hits[0].Version != LatestVersion || hits[0].Chunk != "latest write docs" {
		t.Errorf("hit = %+v", hits[0])
	}

	// An empty version defaults to the latest alias.
	hits, err = store.SearchDocstrings(ctx, "query", "", 10)
	if err != nil {
		t.Fatalf("SearchDocstrings() with empty version error = %v", err)
	}
	if len(hits) != 1 || hits[0].Version != LatestVersion {
		t.Errorf("hits with empty version = %+v", hits)
	}
}

func TestStoreSearchEmptyCollection(t *testing.T) {
	store := setupStore(t, &basisEmbedder{axes: map[string]int{}})

	hits, err := store.SearchPages(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("SearchPages() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("len(hits) = %d, want 0 on an empty collection", len(hits))
	}
}
