package assistant

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Session owns one conversation timeline and processes its questions
// strictly one at a time. Concurrent sessions are independent and share only
// the stateless Engine and its capabilities.
type Session struct {
	engine *Engine
	now    func() time.Time

	// turnMu serializes turns: no two questions from the same session are
	// processed concurrently.
	turnMu sync.Mutex

	// mu guards the conversation value, the epoch counter and the
	// in-flight cancel func. Held briefly; never across capability calls.
	mu     sync.Mutex
	conv   Conversation
	epoch  uint64
	cancel context.CancelFunc
}

// NewSession creates an empty session backed by engine.
func NewSession(engine *Engine) *Session {
	return &Session{engine: engine, now: time.Now}
}

// Messages returns a copy of the conversation log for rendering.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Messages()
}

// Reset clears the conversation and cancels any turn still in flight; the
// cancelled turn's results are discarded rather than appended to the cleared
// log. The rate-limit timestamp survives so a restart cannot bypass the
// gate.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.conv.Clear()
}

// Ask processes one question: rate-limit gating, concurrent context
// gathering, prompt assembly, streamed completion, and state commit. Emit
// receives response fragments as they are produced and may be nil.
//
// On success the full response text is returned and the exchange is
// committed. On error the conversation is left unmodified — except that the
// acceptance timestamp has already been recorded, and a mid-stream failure
// commits the partial text flagged incomplete.
func (s *Session) Ask(ctx context.Context, question string, emit StreamFunc) (string, error) {
	question = sanitizeQuestion(question)
	if question == "" {
		return "", errors.New("empty question")
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	// Accept the question and record the timestamp before gating so burst
	// submissions are throttled on acceptance time, not completion time.
	now := s.now()
	s.mu.Lock()
	last := s.conv.LastQuestionAt()
	s.conv.Accept(now)
	epoch := s.epoch
	turnCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		if s.epoch == epoch {
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	if delay := Gate(now, last, s.engine.MinQuestionInterval()); delay > 0 {
		s.engine.logger.Debug("rate limiting question", "delay", delay)
		if err := sleep(turnCtx, delay); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	history := s.conv.Messages()
	s.mu.Unlock()

	text, partial, err := s.engine.answer(turnCtx, history, question, emit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Session was reset mid-flight; discard everything.
		return "", ErrSessionClosed
	}

	switch {
	case err == nil:
		s.conv.Commit(question, Message{Role: RoleAssistant, Content: text})
		s.engine.record(ctx, question, text)
		return text, nil
	case partial && text != "":
		// Fragments were already delivered; keep what the user saw.
		s.conv.Commit(question, Message{Role: RoleAssistant, Content: text, Incomplete: true})
		return text, err
	default:
		return "", err
	}
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
