package assistant

import "errors"

// Sentinel errors for turn failures. Callers classify with errors.Is.
var (
	// ErrRetrieval indicates a context source was unreachable or rejected
	// the query. Fatal for the turn; there is no partial-context fallback.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrCompletion indicates the language-model capability failed before
	// or during response generation.
	ErrCompletion = errors.New("completion failed")

	// ErrNoContext indicates a degenerate turn: no context sources enabled
	// and no conversation history to answer from.
	ErrNoContext = errors.New("no context sources enabled and no history")

	// ErrSessionClosed indicates the session was reset while a turn was in
	// flight; the turn's results were discarded.
	ErrSessionClosed = errors.New("session reset during turn")
)
