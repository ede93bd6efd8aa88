package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

func TestWebSocketSessionFlow(t *testing.T) {
	env := newTestEnv()
	wsHandler := NewWSHandler(env.tokens, BankSessions(env.service), nil, env.metrics)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	q := url.Values{"category": {"linux"}, "token": {env.token("ada")}}
	u := "ws" + server.URL[len("http"):] + "/ws?" + q.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitSnapshot(t, conn, func(s engine.Snapshot) bool { return s.State == engine.StateReady })

	send(t, conn, "start", nil)
	snap := waitSnapshot(t, conn, func(s engine.Snapshot) bool { return s.State == engine.StateInProgress })
	if snap.Question == nil || snap.TimeLeft != 60 {
		t.Fatalf("expected live question with full timer, got %+v", snap)
	}

	send(t, conn, "submit", nil)
	if msg := readUntil(t, conn, "error"); msg.Payload == nil {
		t.Fatalf("expected error for empty selection")
	}

	send(t, conn, "select", map[string]any{"key": "answer_a"})
	send(t, conn, "submit", nil)
	waitSnapshot(t, conn, func(s engine.Snapshot) bool { return s.Answered && s.LastCorrect })

	send(t, conn, "next", nil)
	// The final snapshot and the success notification race on the wire.
	var (
		final        engine.Snapshot
		notification engine.Notification
		sawFinal     bool
	)
	deadline := time.Now().Add(5 * time.Second)
	for !sawFinal || notification.Message == "" {
		_ = conn.SetReadDeadline(deadline)
		var msg rawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read completion: %v", err)
		}
		switch msg.Type {
		case "snapshot":
			if err := json.Unmarshal(msg.Payload, &final); err != nil {
				t.Fatalf("decode snapshot: %v", err)
			}
			sawFinal = final.Submission == engine.SubmissionSucceeded
		case "notification":
			if err := json.Unmarshal(msg.Payload, &notification); err != nil {
				t.Fatalf("decode notification: %v", err)
			}
		}
	}
	if final.State != engine.StateCompleted || final.Score != 100 || final.TotalQuestions != 1 {
		t.Fatalf("unexpected final snapshot %+v", final)
	}
	if notification.Level != engine.LevelSuccess || notification.Message != "Quiz results saved successfully!" {
		t.Fatalf("unexpected notification %+v", notification)
	}

	history := env.results.History("ada")
	if len(history) != 1 || history[0].Aggregate.Score != 100 {
		t.Fatalf("expected stored submission, got %+v", history)
	}
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	env := newTestEnv()
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(env.tokens, BankSessions(env.service), nil, nil).ServeWS))
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws?category=linux", nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestWebSocketEmptyCategoryReportsError(t *testing.T) {
	env := newTestEnv()
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(env.tokens, BankSessions(env.service), nil, nil).ServeWS))
	defer server.Close()

	q := url.Values{"category": {"empty"}, "token": {env.token("ada")}}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws?"+q.Encode(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg := readUntil(t, conn, "error")
	var payload errorPayload
	_ = json.Unmarshal(msg.Payload, &payload)
	if payload.Message == "" {
		t.Fatalf("expected load error message")
	}

	send(t, conn, "start", nil)
	msg = readUntil(t, conn, "error")
	_ = json.Unmarshal(msg.Payload, &payload)
	if payload.Message != domain.ErrNotReady.Error() {
		t.Fatalf("expected not ready error, got %q", payload.Message)
	}
}

type rawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) rawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var msg rawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func waitSnapshot(t *testing.T, conn *websocket.Conn, match func(engine.Snapshot) bool) engine.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var msg rawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read snapshot: %v", err)
		}
		if msg.Type != "snapshot" {
			continue
		}
		var snap engine.Snapshot
		if err := json.Unmarshal(msg.Payload, &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if match(snap) {
			return snap
		}
	}
}

func TestEnqueueStopsWhenWriterIsGone(t *testing.T) {
	send := make(chan int, 1)
	done := make(chan struct{})

	if !enqueue(send, done, 1) {
		t.Fatalf("expected buffered send to succeed")
	}

	close(done)
	result := make(chan bool, 1)
	go func() { result <- enqueue(send, done, 2) }()
	select {
	case ok := <-result:
		if ok {
			t.Fatalf("expected enqueue to give up on a full buffer once done")
		}
	case <-time.After(time.Second):
		t.Fatalf("enqueue blocked after the writer exited")
	}
}
