package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func postChat(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChat(t *testing.T) {
	t.Parallel()

	const answer = "Streamlit is an open-source Python framework."
	registry := newTestRegistry(t, &scriptedCompleter{answer: answer})
	srv := newTestServer(t, registry)
	id := registry.Create()

	resp := postChat(t, srv.URL+"/api/chat",
		`{"session_id": "`+id.String()+`", "question": "What is Streamlit?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Response != answer {
		t.Errorf("response = %q, want %q", body.Response, answer)
	}
	if body.SessionID != id.String() {
		t.Errorf("session_id = %q, want %q", body.SessionID, id)
	}
}

func TestChatBadRequests(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t, &scriptedCompleter{answer: "hi"})
	srv := newTestServer(t, registry)
	id := registry.Create()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "invalid json", body: "{", want: http.StatusBadRequest},
		{name: "missing question", body: `{"session_id": "` + id.String() + `"}`, want: http.StatusBadRequest},
		{name: "blank question", body: `{"session_id": "` + id.String() + `", "question": "   "}`, want: http.StatusBadRequest},
		{name: "bad session id", body: `{"session_id": "nope", "question": "q"}`, want: http.StatusBadRequest},
		{name: "unknown session", body: `{"session_id": "` + uuid.NewString() + `", "question": "q"}`, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := postChat(t, srv.URL+"/api/chat", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestChatCompletionFailure(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t, &scriptedCompleter{err: errors.New("model offline")})
	srv := newTestServer(t, registry)
	id := registry.Create()

	resp := postChat(t, srv.URL+"/api/chat",
		`{"session_id": "`+id.String()+`", "question": "q"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if body.Error == "" {
		t.Error("error body is empty")
	}
}

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	event string
	data  string
}

// readSSE parses every event from an SSE response body.
func readSSE(t *testing.T, resp *http.Response) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.event != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("reading SSE stream: %v", err)
	}
	return events
}

func TestChatStream(t *testing.T) {
	t.Parallel()

	const answer = "Streamlit is an open-source Python framework."
	registry := newTestRegistry(t, &scriptedCompleter{answer: answer})
	srv := newTestServer(t, registry)
	id := registry.Create()

	resp := postChat(t, srv.URL+"/api/chat/stream",
		`{"session_id": "`+id.String()+`", "question": "What is Streamlit?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	events := readSSE(t, resp)
	if len(events) < 2 {
		t.Fatalf("got %d events, want chunks plus done", len(events))
	}

	var streamed strings.Builder
	for _, ev := range events[:len(events)-1] {
		if ev.event != "chunk" {
			t.Fatalf("unexpected event %q before done", ev.event)
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(ev.data), &chunk); err != nil {
			t.Fatalf("decoding chunk %q: %v", ev.data, err)
		}
		streamed.WriteString(chunk.Content)
	}
	if streamed.String() != answer {
		t.Errorf("streamed text = %q, want %q", streamed.String(), answer)
	}

	last := events[len(events)-1]
	if last.event != "done" {
		t.Fatalf("last event = %q, want done", last.event)
	}
	var done streamDone
	if err := json.Unmarshal([]byte(last.data), &done); err != nil {
		t.Fatalf("decoding done event: %v", err)
	}
	if done.Response != answer || done.Incomplete {
		t.Errorf("done = %+v", done)
	}
}

func TestChatStreamError(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(t, &scriptedCompleter{err: errors.New("model offline")})
	srv := newTestServer(t, registry)
	id := registry.Create()

	resp := postChat(t, srv.URL+"/api/chat/stream",
		`{"session_id": "`+id.String()+`", "question": "q"}`)
	// Failure before the first fragment still arrives as an SSE event.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	events := readSSE(t, resp)
	if len(events) != 1 || events[0].event != "error" {
		t.Fatalf("events = %+v, want a single error event", events)
	}
	var se streamError
	if err := json.Unmarshal([]byte(events[0].data), &se); err != nil {
		t.Fatalf("decoding error event: %v", err)
	}
	if se.Error == "" {
		t.Error("error event carries no message")
	}
}
