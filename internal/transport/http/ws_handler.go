package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"morse-quiz-service/internal/app"
	"morse-quiz-service/internal/auth"
	"morse-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	auth     *auth.Service
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, authService *auth.Service) *WSHandler {
	return &WSHandler{
		service: service,
		auth:    authService,
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

type submitPayload struct {
	QuestionID int64 `json:"questionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades an authenticated request to a websocket bound to one quiz session.
// The session ends when the connection closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.auth.CurrentUser(bearerToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.service.Start(ctx, identity)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.UserID).Msg("start quiz session")
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: app.UserMessage(err)}})
		return
	}
	defer h.service.End(identity.UserID, session)

	out := newOutbox(func(msg outboundMessage[any]) error { return conn.WriteJSON(msg) })
	defer out.close()

	push := func(msgType string, payload any) bool {
		return out.push(outboundMessage[any]{Type: msgType, Payload: payload})
	}
	pushErr := func(err error) bool {
		return push("error", errorPayload{Message: app.UserMessage(err)})
	}

	if !push("state", session.View()) {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		var err error
		ok := true
		switch inbound.Type {
		case "dot":
			err = session.AppendDot()
		case "dash":
			err = session.AppendDash()
		case "separator":
			err = session.AppendSeparator()
		case "clear":
			err = session.ClearInput()
		case "submit":
			var payload submitPayload
			if len(inbound.Payload) > 0 {
				if jsonErr := json.Unmarshal(inbound.Payload, &payload); jsonErr != nil {
					if !push("error", errorPayload{Message: "invalid submit payload"}) {
						return
					}
					continue
				}
			}
			var result domain.SubmitResult
			result, err = session.Submit(ctx, payload.QuestionID)
			if err == nil {
				log.Info().
					Str("user_id", identity.UserID).
					Int64("question_id", result.Record.QuestionID).
					Bool("correct", result.Record.IsCorrect).
					Msg("answer submitted")
				ok = push("answerResult", result)
			}
		case "retry":
			err = session.Retry(ctx)
		case "results":
			var results domain.Results
			if results, err = session.Results(); err == nil {
				if !push("results", results) {
					return
				}
				continue
			}
		case "leaderboard":
			entries, lbErr := h.service.Leaderboard(ctx)
			if lbErr != nil {
				ok = pushErr(lbErr)
			} else {
				ok = push("leaderboard", entries)
			}
			if !ok {
				return
			}
			continue
		default:
			if !push("error", errorPayload{Message: "unsupported message type"}) {
				return
			}
			continue
		}

		if err != nil {
			if !pushErr(err) || errors.Is(err, domain.ErrSessionClosed) {
				return
			}
			continue
		}
		if !ok || !push("state", session.View()) {
			return
		}
	}
}

// outbox serializes writes to a connection through one goroutine; gorilla
// connections do not support concurrent writers. Once a write fails the outbox
// stops accepting messages, so a reader pushing to it never blocks on a dead writer.
type outbox struct {
	queue chan outboundMessage[any]
	done  chan struct{}
}

func newOutbox(write func(outboundMessage[any]) error) *outbox {
	o := &outbox{
		queue: make(chan outboundMessage[any], 16),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(o.done)
		for msg := range o.queue {
			if err := write(msg); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()
	return o
}

// push queues msg and reports false once the writer has stopped.
func (o *outbox) push(msg outboundMessage[any]) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.queue <- msg:
		return true
	case <-o.done:
		return false
	}
}

// close flushes queued messages and waits for the writer to exit.
func (o *outbox) close() {
	close(o.queue)
	<-o.done
}

// bearerToken reads the session token from the query string or the Authorization header.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
