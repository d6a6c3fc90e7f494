package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"school-quiz-service/internal/app"
	"school-quiz-service/internal/domain"
)

// compromisedPlaceholder replaces question text once the anti-cheat
// monitor trips. Deterrence only; it does not end the session.
const compromisedPlaceholder = "Question hidden: suspicious activity was detected on this attempt."

type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Password string `json:"password"`
}

type selectPayload struct {
	OptionID string `json:"optionId"`
}

type cheatPayload struct {
	Kind string `json:"kind"`
}

type visibilityPayload struct {
	Hidden bool `json:"hidden"`
}

type questionPayload struct {
	Question    domain.Question `json:"question"`
	Position    int             `json:"position"`
	Total       int             `json:"total"`
	Remaining   int             `json:"remaining"`
	Compromised bool            `json:"compromised"`
	Blurred     bool            `json:"blurred"`
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// wsSender pairs every enqueue with the writer's close signal so a dead
// writer never leaves the connection goroutine blocked on a full channel.
type wsSender struct {
	ch   chan outboundMessage[any]
	done <-chan struct{}
}

func (s *wsSender) send(msg outboundMessage[any]) {
	select {
	case s.ch <- msg:
	case <-s.done:
	}
}

// ServeWS upgrades HTTP requests to websockets and drives one
// participant's attempt: password start, answer capture, forward-only
// navigation, server-side countdown and result submission.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	participant := r.URL.Query().Get("school")
	if participant == "" {
		http.Error(w, "missing school", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()
	out := &wsSender{ch: send, done: writerDone}

	ticker := time.NewTicker(time.Second)
	ticker.Stop() // armed on successful start
	defer ticker.Stop()

	inbound := make(chan inboundMessage)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-writerDone:
				return
			}
		}
	}()

	started := false
loop:
	for {
		select {
		case <-readerDone:
			break loop
		case <-writerDone:
			break loop
		case <-ticker.C:
			remaining, finished, err := h.service.Tick(r.Context(), participant)
			if err != nil && !errors.Is(err, domain.ErrDuplicateAttempt) {
				out.send(errorMessage(err))
				continue
			}
			if finished {
				ticker.Stop()
				h.sendFinished(r.Context(), out, participant)
				continue
			}
			out.send(outboundMessage[any]{Type: "tick", Payload: tickPayload{Remaining: remaining}})
		case msg := <-inbound:
			if done := h.handleMessage(r, out, ticker, participant, &started, msg); done {
				break loop
			}
		}
	}

	close(send)
	<-writerDone
}

// handleMessage dispatches one inbound message; the return value requests
// connection teardown.
func (h *WSHandler) handleMessage(r *http.Request, out *wsSender, ticker *time.Ticker, participant string, started *bool, msg inboundMessage) bool {
	ctx := r.Context()
	switch msg.Type {
	case "start":
		if *started {
			out.send(outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: "validation", Message: "session already started on this connection"}})
			return false
		}
		var payload startPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			out.send(invalidPayload("start"))
			return false
		}
		session, err := h.service.Start(ctx, participant, payload.Password)
		if err != nil {
			out.send(errorMessage(err))
			return false
		}
		*started = true
		if session.State() == app.StateFinished {
			// Restored past its budget; settle immediately.
			h.sendFinished(ctx, out, participant)
			return false
		}
		ticker.Reset(time.Second)
		h.sendQuestion(out, session)

	case "select":
		var payload selectPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			out.send(invalidPayload("select"))
			return false
		}
		if err := h.service.Select(ctx, participant, payload.OptionID); err != nil {
			out.send(errorMessage(err))
			return false
		}
		h.sendCurrent(out, participant)

	case "clear":
		if err := h.service.Clear(ctx, participant); err != nil {
			out.send(errorMessage(err))
			return false
		}
		h.sendCurrent(out, participant)

	case "next":
		finished, err := h.service.Next(ctx, participant)
		if err != nil && !errors.Is(err, domain.ErrDuplicateAttempt) {
			out.send(errorMessage(err))
			return false
		}
		if finished {
			ticker.Stop()
			h.sendFinished(ctx, out, participant)
			return false
		}
		h.sendCurrent(out, participant)

	case "cheat":
		var payload cheatPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			out.send(invalidPayload("cheat"))
			return false
		}
		if _, err := h.service.ReportEvent(ctx, participant, app.EventKind(payload.Kind)); err != nil {
			out.send(errorMessage(err))
			return false
		}
		h.sendCurrent(out, participant)

	case "visibility":
		var payload visibilityPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			out.send(invalidPayload("visibility"))
			return false
		}
		if err := h.service.SetHidden(participant, payload.Hidden); err != nil {
			out.send(errorMessage(err))
		}

	case "reset":
		if err := h.service.Reset(ctx, participant); err != nil {
			out.send(errorMessage(err))
			return false
		}
		ticker.Stop()
		*started = false
		out.send(outboundMessage[any]{Type: "reset", Payload: struct{}{}})

	default:
		out.send(outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: "validation", Message: "unsupported message type"}})
	}
	return false
}

func (h *WSHandler) sendCurrent(out *wsSender, participant string) {
	session, ok := h.service.Session(participant)
	if !ok {
		out.send(errorMessage(domain.ErrNoSession))
		return
	}
	h.sendQuestion(out, session)
}

func (h *WSHandler) sendQuestion(out *wsSender, session *app.Session) {
	question, position, ok := session.Current()
	if !ok {
		return
	}
	monitor := session.Monitor()
	if monitor.Compromised() {
		question.Prompt = compromisedPlaceholder
		question.ImageRef = ""
	}
	out.send(outboundMessage[any]{Type: "question", Payload: questionPayload{
		Question:    question,
		Position:    position,
		Total:       len(session.Group().Questions),
		Remaining:   session.Remaining(),
		Compromised: monitor.Compromised(),
		Blurred:     monitor.Blurred(),
	}})
}

func (h *WSHandler) sendFinished(ctx context.Context, out *wsSender, participant string) {
	result, err := h.service.Submit(ctx, participant)
	if err != nil && !errors.Is(err, domain.ErrDuplicateAttempt) {
		out.send(errorMessage(err))
		return
	}
	out.send(outboundMessage[any]{Type: "finished", Payload: result})
	if errors.Is(err, domain.ErrDuplicateAttempt) {
		out.send(errorMessage(err))
	}
}

func invalidPayload(kind string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: "validation", Message: "invalid " + kind + " payload"}}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: errorKind(err), Message: err.Error()}}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredential):
		return "invalidCredential"
	case errors.Is(err, domain.ErrDuplicateAttempt):
		return "duplicateAttempt"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "notFound"
	case errors.Is(err, domain.ErrSessionFinished):
		return "sessionFinished"
	case errors.Is(err, domain.ErrNoSession):
		return "noSession"
	default:
		return "storageUnavailable"
	}
}
