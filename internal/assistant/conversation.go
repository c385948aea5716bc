package assistant

import (
	"strings"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

// Valid message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation log. Messages are immutable once
// appended; insertion order is the sole timeline of the conversation.
type Message struct {
	Role    Role
	Content string

	// Incomplete marks an assistant message whose stream failed partway.
	// The partial text is kept rather than dropped.
	Incomplete bool
}

// Conversation is the ordered log of user/assistant exchanges for one
// session, plus the timestamp of the last accepted question.
//
// Conversation is a plain value with no internal locking. It is owned
// exclusively by one Session, which synchronizes all access.
type Conversation struct {
	messages       []Message
	lastQuestionAt time.Time
}

// Messages returns a copy of the message log.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.messages) }

// LastQuestionAt returns when the last question was accepted. The zero time
// means no question has been accepted yet, so the first question is never
// rate-limited.
func (c *Conversation) LastQuestionAt() time.Time { return c.lastQuestionAt }

// Accept records the acceptance time of a new question. Called before the
// long-running work begins so bursts are throttled on acceptance time, not
// completion time.
func (c *Conversation) Accept(now time.Time) { c.lastQuestionAt = now }

// Commit appends a completed exchange to the log.
func (c *Conversation) Commit(question string, answer Message) {
	c.messages = append(c.messages,
		Message{Role: RoleUser, Content: question},
		answer,
	)
}

// Clear empties the message log. The last-question timestamp is kept so a
// restart does not bypass the rate limiter.
func (c *Conversation) Clear() {
	c.messages = nil
}

// splitHistory divides messages into the old portion (to be summarized or
// dropped, never included verbatim) and the recent window of at most n
// messages (included verbatim).
func splitHistory(messages []Message, n int) (old, recent []Message) {
	if n <= 0 {
		return messages, nil
	}
	if len(messages) <= n {
		return nil, messages
	}
	cut := len(messages) - n
	return messages[:cut], messages[cut:]
}

// historyToText renders messages one per line as "[role]: content".
func historyToText(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = "[" + string(m.Role) + "]: " + m.Content
	}
	return strings.Join(lines, "\n")
}
