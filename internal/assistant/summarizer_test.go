package assistant

import (
	"context"
	"errors"
	"testing"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{
		complete: func(_ context.Context, prompt string) (string, error) {
			want := "<instructions>\n" + summaryInstruction + "\n</instructions>\n" +
				"<conversation>\n[user]: hi\n[assistant]: hello\n</conversation>"
			if prompt != want {
				t.Errorf("summarize prompt =\n%s\nwant:\n%s", prompt, want)
			}
			return "greeting exchange", nil
		},
	}

	messages := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}
	got, err := summarize(context.Background(), completer, messages)
	if err != nil {
		t.Fatalf("summarize() error = %v", err)
	}
	if got != "greeting exchange" {
		t.Errorf("summarize() = %q", got)
	}
}

func TestSummarizeError(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{
		complete: func(context.Context, string) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	_, err := summarize(context.Background(), completer, []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrCompletion) {
		t.Errorf("summarize() error = %v, want ErrCompletion", err)
	}
}
