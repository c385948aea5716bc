// Package telemetry defines the interface for recording question/answer
// telemetry and user feedback. The assistant calls it best-effort after a
// committed turn; no backend is implemented yet.
package telemetry

import "context"

// Event describes one recorded interaction. Rating and Feedback are only
// set for explicit user feedback submissions.
type Event struct {
	Question string
	Response string

	Rating         int    // 1-5 stars, 0 = unrated
	Feedback       string // free-form feedback text
	IncludeHistory bool   // user consented to attach chat history
}

// Recorder accepts telemetry events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Nop is a Recorder that discards all events.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) error { return nil }
