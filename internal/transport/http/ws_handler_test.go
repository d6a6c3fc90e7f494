package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"school-quiz-service/internal/app"
	"school-quiz-service/internal/domain"
	"school-quiz-service/internal/infra/memory"
)

func wsTestGroup() domain.QuizGroup {
	return domain.QuizGroup{
		ID:              "science-2026",
		Name:            "Science Quiz 2026",
		Password:        "letmein",
		DurationSeconds: 60,
		Questions: []domain.Question{
			{
				ID:            "q1",
				Prompt:        "Pick a",
				CorrectOption: "a",
				Options:       []domain.Option{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
			},
			{
				ID:            "q2",
				Prompt:        "Pick b",
				CorrectOption: "b",
				Options:       []domain.Option{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
			},
		},
	}
}

func newWSServer(t *testing.T) (*httptest.Server, *memory.AttemptRepository) {
	t.Helper()
	groups := memory.NewGroupRepository(memory.NewStaticGroupLoader([]domain.QuizGroup{wsTestGroup()}), time.Minute)
	attempts := memory.NewAttemptRepository()
	service := app.NewAttemptService(groups, attempts, memory.NewSnapshotStore())
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux), attempts
}

func dial(t *testing.T, server *httptest.Server, school string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?school=" + school
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(inboundMessage{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// readNext skips ticks until a message of the wanted type arrives.
func readNext(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read waiting for %s: %v", want, err)
		}
		switch msg.Type {
		case want:
			return msg.Payload
		case "tick":
			continue
		case "error":
			t.Fatalf("unexpected error while waiting for %s: %s", want, msg.Payload)
		default:
			t.Fatalf("unexpected %s while waiting for %s", msg.Type, want)
		}
	}
}

func TestWebSocketAttemptFlow(t *testing.T) {
	server, attempts := newWSServer(t)
	defer server.Close()

	conn := dial(t, server, "Greenwood")
	defer conn.Close()

	correctByID := map[string]string{"q1": "a", "q2": "b"}

	sendMsg(t, conn, "start", startPayload{Password: "letmein"})
	for i := 0; i < 2; i++ {
		var q questionPayload
		if err := json.Unmarshal(readNext(t, conn, "question"), &q); err != nil {
			t.Fatalf("unmarshal question: %v", err)
		}
		if q.Question.CorrectOption != "" {
			t.Fatalf("correct option leaked to client")
		}
		if q.Total != 2 || q.Position != i {
			t.Fatalf("unexpected progress: %+v", q)
		}

		sendMsg(t, conn, "select", selectPayload{OptionID: correctByID[q.Question.ID]})
		readNext(t, conn, "question") // echo after select
		sendMsg(t, conn, "next", struct{}{})
	}

	var result domain.AttemptResult
	if err := json.Unmarshal(readNext(t, conn, "finished"), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Correct != 2 || result.Score != 4 {
		t.Fatalf("expected 2 correct for score 4, got %+v", result)
	}

	stored, err := attempts.List(context.Background())
	if err != nil || len(stored) != 1 {
		t.Fatalf("expected one stored attempt, got %d (%v)", len(stored), err)
	}
}

func TestWebSocketBadPassword(t *testing.T) {
	server, _ := newWSServer(t)
	defer server.Close()

	conn := dial(t, server, "Greenwood")
	defer conn.Close()

	sendMsg(t, conn, "start", startPayload{Password: "nope"})

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Type    string       `json:"type"`
		Payload errorPayload `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" || msg.Payload.Kind != "invalidCredential" {
		t.Fatalf("expected invalidCredential error, got %+v", msg)
	}
}

func TestWebSocketCompromisedHidesQuestion(t *testing.T) {
	server, _ := newWSServer(t)
	defer server.Close()

	conn := dial(t, server, "Greenwood")
	defer conn.Close()

	sendMsg(t, conn, "start", startPayload{Password: "letmein"})
	readNext(t, conn, "question")

	sendMsg(t, conn, "cheat", cheatPayload{Kind: "copy"})
	var q questionPayload
	if err := json.Unmarshal(readNext(t, conn, "question"), &q); err != nil {
		t.Fatalf("unmarshal question: %v", err)
	}
	if !q.Compromised {
		t.Fatalf("expected compromised flag set")
	}
	if q.Question.Prompt != compromisedPlaceholder {
		t.Fatalf("expected placeholder prompt, got %q", q.Question.Prompt)
	}
}

func TestSenderUnblocksWhenWriterDies(t *testing.T) {
	ch := make(chan outboundMessage[any], 1)
	done := make(chan struct{})
	out := &wsSender{ch: ch, done: done}

	out.send(outboundMessage[any]{Type: "tick"}) // fill the buffer
	close(done)                                  // writer gone

	finished := make(chan struct{})
	go func() {
		out.send(outboundMessage[any]{Type: "tick"})
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("send blocked after writer exit")
	}
}

func TestWebSocketRequiresSchool(t *testing.T) {
	server, _ := newWSServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without school, got %d", resp.StatusCode)
	}
}
