package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docwise/docwise/internal/telemetry"
)

// Defaults for optional Config values.
const (
	// DefaultHistoryLength is the recent-history retention window in
	// messages; everything older is summarized or dropped.
	DefaultHistoryLength = 5

	// DefaultMinQuestionInterval is the minimum spacing between
	// consecutive question acceptances.
	DefaultMinQuestionInterval = 3 * time.Second
)

// DefaultInstructions is the system instruction block placed at the top of
// every prompt.
const DefaultInstructions = `- You are a helpful AI chat assistant focused on answering questions about
  Streamlit, Streamlit Community Cloud, and general Python.
- You will be given extra information provided inside tags like this
  <foo></foo>.
- Use context and history to provide a coherent answer.
- Use markdown such as headers (starting with ###), code blocks, bullet
  points, 3-space indentation for sub bullets, and backticks for inline
  code and markdown features like icon names.
- Assume the user is a newbie.
- Write paragraphs of explanation, as if you're writing documentation.
- Offer alternatives where they exist.
- Provide examples.
- Include related links throughout the text and at the bottom.
- Avoid experimental and private APIs.
- Don't say things like "according to the provided context".
- If you don't know, just say "I don't know the answer to that question."
- Streamlit is a product of Snowflake.`

// Completer is the language-model completion capability.
// Interface defined here, by the consumer; *completion.Client satisfies it.
type Completer interface {
	// Complete sends a prompt and returns the full response text.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteStream sends a prompt and invokes emit for each response
	// fragment as it is produced, then returns the concatenated text.
	// Whatever emit has received is valid partial output even when an
	// error is returned.
	CompleteStream(ctx context.Context, prompt string, emit func(ctx context.Context, fragment string) error) (string, error)
}

// StreamFunc receives one response fragment. Returning an error aborts the
// stream.
type StreamFunc func(ctx context.Context, fragment string) error

// Config carries the Engine's dependencies and tuning.
type Config struct {
	Completer Completer
	Logger    *slog.Logger

	// Sources are the context-gathering capabilities, in prompt order.
	// An empty slice disables retrieval entirely (history-only turns).
	Sources []Source

	// SummarizeHistory enables condensing messages beyond the retention
	// window into an old_message_summary section.
	SummarizeHistory bool

	// Telemetry records committed turns. Nil disables recording.
	Telemetry telemetry.Recorder

	Instructions        string        // default DefaultInstructions
	HistoryLength       int           // default DefaultHistoryLength
	MinQuestionInterval time.Duration // default DefaultMinQuestionInterval
	Concurrency         int           // fan-out ceiling, default 5
}

// validate checks required dependencies.
func (cfg Config) validate() error {
	if cfg.Completer == nil {
		return errors.New("completer is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Engine drives question-answering turns. It is stateless: conversation
// state is passed in per turn and owned by the caller. All configuration is
// captured immutably at construction, so one Engine is safely shared by
// concurrent sessions.
type Engine struct {
	completer    Completer
	sources      []Source
	summarize    bool
	telemetry    telemetry.Recorder
	instructions string
	historyLen   int
	minInterval  time.Duration
	concurrency  int
	logger       *slog.Logger
}

// New creates an Engine from cfg, applying defaults for zero values.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	instructions := cfg.Instructions
	if instructions == "" {
		instructions = DefaultInstructions
	}
	historyLen := cfg.HistoryLength
	if historyLen <= 0 {
		historyLen = DefaultHistoryLength
	}
	minInterval := cfg.MinQuestionInterval
	if minInterval <= 0 {
		minInterval = DefaultMinQuestionInterval
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	e := &Engine{
		completer:    cfg.Completer,
		sources:      cfg.Sources,
		summarize:    cfg.SummarizeHistory,
		telemetry:    cfg.Telemetry,
		instructions: instructions,
		historyLen:   historyLen,
		minInterval:  minInterval,
		concurrency:  concurrency,
		logger:       cfg.Logger,
	}

	sourceNames := make([]string, len(e.sources))
	for i, s := range e.sources {
		sourceNames[i] = s.Name()
	}
	e.logger.Info("assistant engine initialized",
		"sources", strings.Join(sourceNames, ","),
		"summarize_history", e.summarize,
		"history_length", e.historyLen,
		"min_question_interval", e.minInterval,
	)
	return e, nil
}

// MinQuestionInterval returns the configured rate-limit spacing.
func (e *Engine) MinQuestionInterval() time.Duration { return e.minInterval }

// HistoryLength returns the recent-history retention window.
func (e *Engine) HistoryLength() int { return e.historyLen }

// sanitizeQuestion strips characters the retrieval backends reject.
func sanitizeQuestion(q string) string {
	return strings.ReplaceAll(q, "'", "")
}

// buildTasks constructs the per-turn task list from configuration: one task
// per enabled source, then the history summary when enabled and old history
// is non-empty. Slice order is the prompt submission order.
func (e *Engine) buildTasks(question string, old []Message) []Task {
	tasks := make([]Task, 0, len(e.sources)+1)
	for _, src := range e.sources {
		tasks = append(tasks, Task{
			Name: src.Name(),
			Run: func(ctx context.Context) (string, error) {
				return src.Search(ctx, question)
			},
		})
	}
	if e.summarize && len(old) > 0 {
		tasks = append(tasks, Task{
			Name: SectionSummary,
			Run: func(ctx context.Context) (string, error) {
				return summarize(ctx, e.completer, old)
			},
		})
	}
	return tasks
}

// buildPrompt gathers context concurrently and assembles the full prompt.
// Section order is fixed and independent of task completion order:
// instructions, context sections in submission order, recent history,
// question.
func (e *Engine) buildPrompt(ctx context.Context, history []Message, question string) (string, error) {
	old, recent := splitHistory(history, e.historyLen)
	recentText := historyToText(recent)

	tasks := e.buildTasks(question, old)
	if len(tasks) == 0 && recentText == "" {
		return "", ErrNoContext
	}

	start := time.Now()
	blocks, err := runAll(ctx, tasks, e.concurrency)
	if err != nil {
		return "", err
	}
	e.logger.Debug("context gathered",
		"tasks", len(tasks),
		"duration", time.Since(start),
	)

	sections := make([]Section, 0, len(tasks)+3)
	sections = append(sections, Section{Name: SectionInstructions, Text: e.instructions})
	for _, t := range tasks {
		sections = append(sections, Section{Name: t.Name, Text: blocks[t.Name]})
	}
	sections = append(sections,
		Section{Name: SectionRecent, Text: recentText},
		Section{Name: SectionQuestion, Text: question},
	)
	return Assemble(sections), nil
}

// answer runs the context-gathering and completion phases of one turn
// against a snapshot of the conversation history. It returns the full
// response text on success. On a mid-stream failure it returns whatever
// partial text was already emitted along with the error, so the caller can
// commit it flagged as incomplete.
func (e *Engine) answer(ctx context.Context, history []Message, question string, emit StreamFunc) (text string, partial bool, err error) {
	prompt, err := e.buildPrompt(ctx, history, question)
	if err != nil {
		return "", false, err
	}
	e.logger.Debug("prompt assembled", "bytes", len(prompt))

	var buf strings.Builder
	collect := func(ctx context.Context, fragment string) error {
		buf.WriteString(fragment)
		if emit == nil {
			return nil
		}
		return emit(ctx, fragment)
	}

	full, err := e.completer.CompleteStream(ctx, prompt, collect)
	if err != nil {
		if buf.Len() > 0 {
			return buf.String(), true, fmt.Errorf("%w: mid-stream: %w", ErrCompletion, err)
		}
		return "", false, fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	return full, false, nil
}

// record sends turn telemetry best-effort; failures are logged, never
// surfaced.
func (e *Engine) record(ctx context.Context, question, response string) {
	if e.telemetry == nil {
		return
	}
	ev := telemetry.Event{Question: question, Response: response}
	if err := e.telemetry.Record(ctx, ev); err != nil {
		e.logger.Debug("telemetry record failed", "error", err)
	}
}
