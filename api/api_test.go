package api

import (
	"context"
	"testing"
	"time"

	"github.com/docwise/docwise/internal/assistant"
	"github.com/docwise/docwise/internal/log"
)

// scriptedCompleter streams a fixed answer in two fragments, or fails.
type scriptedCompleter struct {
	answer string
	err    error
}

func (c *scriptedCompleter) Complete(context.Context, string) (string, error) {
	return c.answer, c.err
}

func (c *scriptedCompleter) CompleteStream(ctx context.Context, _ string, emit func(ctx context.Context, fragment string) error) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if emit != nil {
		half := len(c.answer) / 2
		for _, frag := range []string{c.answer[:half], c.answer[half:]} {
			if err := emit(ctx, frag); err != nil {
				return "", err
			}
		}
	}
	return c.answer, nil
}

// staticSource returns one fixed context block.
type staticSource struct{}

func (staticSource) Name() string { return "documentation_pages" }

func (staticSource) Search(context.Context, string) (string, error) {
	return "[https://docs.streamlit.io/x]: some chunk", nil
}

func newTestRegistry(t *testing.T, completer assistant.Completer) *SessionRegistry {
	t.Helper()
	engine, err := assistant.New(assistant.Config{
		Completer:           completer,
		Logger:              log.NewNop(),
		Sources:             []assistant.Source{staticSource{}},
		MinQuestionInterval: time.Nanosecond,
	})
	if err != nil {
		t.Fatalf("assistant.New() error = %v", err)
	}
	return NewSessionRegistry(engine)
}
