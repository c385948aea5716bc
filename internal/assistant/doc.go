// Package assistant implements the question-answering orchestration engine.
//
// A turn works like this: the Session records the question acceptance time,
// waits out the rate-limit gate, fans out the context-gathering tasks
// (documentation page search, command docstring search, old-history
// summarization) under a bounded worker pool, assembles a deterministic
// tagged prompt from the results, streams the model response to the caller,
// and finally commits the user/assistant message pair to the conversation.
//
// Failure policy is all-or-nothing: any task error aborts the whole turn and
// leaves the conversation untouched. The one exception is a completion
// failure after fragments have already been streamed — the partial text is
// committed flagged as incomplete rather than silently dropped.
//
// The engine is stateless and safe for concurrent use; each Session owns its
// conversation exclusively and serializes its own turns.
package assistant
