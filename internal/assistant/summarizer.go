package assistant

import (
	"context"
	"fmt"
)

// summaryInstruction is the fixed instruction for history condensation.
const summaryInstruction = "Summarize this conversation as concisely as possible."

// summarize condenses messages beyond the retention window into a short text
// block using the completion capability in non-streaming mode. Only called
// when old history is non-empty. A summary failure is fatal for the turn —
// history context is never silently omitted.
func summarize(ctx context.Context, c Completer, messages []Message) (string, error) {
	prompt := Assemble([]Section{
		{Name: SectionInstructions, Text: summaryInstruction},
		{Name: SectionConversation, Text: historyToText(messages)},
	})

	out, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: summarizing history: %w", ErrCompletion, err)
	}
	return out, nil
}
