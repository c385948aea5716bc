package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docwise/docwise/internal/knowledge"
	"github.com/docwise/docwise/internal/log"
)

// fakeCompleter scripts the completion capability and records the prompts
// it receives.
type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string

	// complete serves summarization calls; stream serves answer calls.
	// Unset functions return canned text.
	complete func(ctx context.Context, prompt string) (string, error)
	stream   func(ctx context.Context, prompt string, emit func(context.Context, string) error) (string, error)
}

func (f *fakeCompleter) record(prompt string) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
}

func (f *fakeCompleter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.record(prompt)
	if f.complete != nil {
		return f.complete(ctx, prompt)
	}
	return "summary text", nil
}

func (f *fakeCompleter) CompleteStream(ctx context.Context, prompt string, emit func(ctx context.Context, fragment string) error) (string, error) {
	f.record(prompt)
	if f.stream != nil {
		return f.stream(ctx, prompt, emit)
	}
	const answer = "canned answer"
	if emit != nil {
		if err := emit(ctx, answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

// fakeSource is a scripted context source.
type fakeSource struct {
	name  string
	text  string
	err   error
	delay time.Duration
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Search(ctx context.Context, _ string) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Logger: log.NewNop()}); err == nil {
		t.Error("New() without completer succeeded, want error")
	}
	if _, err := New(Config{Completer: &fakeCompleter{}}); err == nil {
		t.Error("New() without logger succeeded, want error")
	}
}

func TestSanitizeQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "What is Streamlit?", want: "What is Streamlit?"},
		{in: "what's st.write?", want: "whats st.write?"},
		{in: "'''", want: ""},
	}
	for _, tt := range tests {
		if got := sanitizeQuestion(tt.in); got != tt.want {
			t.Errorf("sanitizeQuestion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildPromptSectionOrder(t *testing.T) {
	t.Parallel()

	// The pages source is slow so it finishes after docstrings; the
	// prompt order must still follow submission order.
	e := newTestEngine(t, Config{
		Completer: &fakeCompleter{},
		Sources: []Source{
			&fakeSource{name: SectionPages, text: "[url]: page text", delay: 20 * time.Millisecond},
			&fakeSource{name: SectionDocstrings, text: "[Document 0]: doc text"},
		},
		SummarizeHistory: true,
		Instructions:     "Be helpful.",
		HistoryLength:    2,
	})

	history := []Message{
		{Role: RoleUser, Content: "old question"},
		{Role: RoleAssistant, Content: "old answer"},
		{Role: RoleUser, Content: "recent question"},
		{Role: RoleAssistant, Content: "recent answer"},
	}

	prompt, err := e.buildPrompt(context.Background(), history, "What is caching?")
	if err != nil {
		t.Fatalf("buildPrompt() error = %v", err)
	}

	want := strings.Join([]string{
		"<instructions>\nBe helpful.\n</instructions>",
		"<documentation_pages>\n[url]: page text\n</documentation_pages>",
		"<command_docstrings>\n[Document 0]: doc text\n</command_docstrings>",
		"<old_message_summary>\nsummary text\n</old_message_summary>",
		"<recent_messages>\n[user]: recent question\n[assistant]: recent answer\n</recent_messages>",
		"<question>\nWhat is caching?\n</question>",
	}, "\n")
	if prompt != want {
		t.Errorf("buildPrompt() =\n%s\nwant:\n%s", prompt, want)
	}
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{
		Completer: &fakeCompleter{},
		Sources: []Source{
			&fakeSource{name: SectionPages, text: ""},
			&fakeSource{name: SectionDocstrings, text: "[Document 0]: hit"},
		},
		Instructions: "Be helpful.",
	})

	prompt, err := e.buildPrompt(context.Background(), nil, "q")
	if err != nil {
		t.Fatalf("buildPrompt() error = %v", err)
	}
	if strings.Contains(prompt, "<"+SectionPages+">") {
		t.Errorf("empty pages result rendered a tagged block:\n%s", prompt)
	}
	if !strings.Contains(prompt, "<"+SectionDocstrings+">") {
		t.Errorf("non-empty docstrings block missing:\n%s", prompt)
	}
}

func TestBuildPromptNoSummaryForShortHistory(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{}
	e := newTestEngine(t, Config{
		Completer:        completer,
		Sources:          []Source{&fakeSource{name: SectionPages, text: "hit"}},
		SummarizeHistory: true,
		HistoryLength:    5,
	})

	history := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}
	prompt, err := e.buildPrompt(context.Background(), history, "q")
	if err != nil {
		t.Fatalf("buildPrompt() error = %v", err)
	}
	if strings.Contains(prompt, "<"+SectionSummary+">") {
		t.Errorf("summary block present though history fits the window:\n%s", prompt)
	}
	// Only the answer prompt would be built from here; no Complete call
	// means no summarization happened.
	if len(completer.prompts) != 0 {
		t.Errorf("completer received %d prompts during buildPrompt, want 0", len(completer.prompts))
	}
}

func TestBuildPromptNoContext(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{Completer: &fakeCompleter{}})
	_, err := e.buildPrompt(context.Background(), nil, "q")
	if !errors.Is(err, ErrNoContext) {
		t.Errorf("buildPrompt() error = %v, want ErrNoContext", err)
	}
}

func TestBuildPromptRetrievalFailureAborts(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Config{
		Completer: &fakeCompleter{},
		Sources: []Source{
			&fakeSource{name: SectionPages, text: "fine"},
			&fakeSource{name: SectionDocstrings, err: errors.New("index offline")},
		},
	})

	_, err := e.buildPrompt(context.Background(), nil, "q")
	if err == nil {
		t.Fatal("buildPrompt() succeeded despite failed source")
	}
	if !strings.Contains(err.Error(), "index offline") {
		t.Errorf("error %q does not carry the source failure", err)
	}
}

// stubSearcher backs the end-to-end scenario with a real PagesSource.
type stubSearcher struct{ hits []knowledge.PageHit }

func (s *stubSearcher) SearchPages(context.Context, string, int) ([]knowledge.PageHit, error) {
	return s.hits, nil
}

func TestEndToEndPagesOnly(t *testing.T) {
	t.Parallel()

	const instructions = "Answer using the documentation."
	const answer = "Streamlit is an open-source Python framework."

	completer := &fakeCompleter{
		stream: func(ctx context.Context, _ string, emit func(context.Context, string) error) (string, error) {
			if emit != nil {
				if err := emit(ctx, answer); err != nil {
					return "", err
				}
			}
			return answer, nil
		},
	}
	searcher := &stubSearcher{hits: []knowledge.PageHit{
		{PageURL: "url1", Chunk: "chunk1"},
		{PageURL: "url2", Chunk: "chunk2"},
	}}

	e := newTestEngine(t, Config{
		Completer:    completer,
		Sources:      []Source{&PagesSource{Searcher: searcher, Limit: 2}},
		Instructions: instructions,
	})
	session := NewSession(e)

	got, err := session.Ask(context.Background(), "What is Streamlit?", nil)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if got != answer {
		t.Errorf("Ask() = %q, want %q", got, answer)
	}

	wantPrompt := "<instructions>\n" + instructions + "\n</instructions>\n" +
		"<documentation_pages>\n[url1]: chunk1\n[url2]: chunk2\n</documentation_pages>\n" +
		"<question>\nWhat is Streamlit?\n</question>"
	if gotPrompt := completer.lastPrompt(); gotPrompt != wantPrompt {
		t.Errorf("prompt =\n%s\nwant:\n%s", gotPrompt, wantPrompt)
	}

	messages := session.Messages()
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if messages[0].Role != RoleUser || messages[0].Content != "What is Streamlit?" {
		t.Errorf("messages[0] = %+v", messages[0])
	}
	if messages[1].Role != RoleAssistant || messages[1].Content != answer || messages[1].Incomplete {
		t.Errorf("messages[1] = %+v", messages[1])
	}
}
