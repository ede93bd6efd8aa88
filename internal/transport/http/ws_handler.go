package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/engine"
)

// SessionFactory builds the engine controller serving one player connection.
type SessionFactory func(username string, notifier engine.Notifier) *engine.Controller

// BankSessions serves sessions straight from the in-process question bank.
func BankSessions(service *app.BankService, opts ...engine.Option) SessionFactory {
	return func(username string, notifier engine.Notifier) *engine.Controller {
		source := engine.SourceFunc(func(ctx context.Context, category string) ([]domain.Question, error) {
			return service.Questions(ctx, category, 0)
		})
		submitter := engine.SubmitterFunc(func(ctx context.Context, aggregate domain.Aggregate) error {
			_, err := service.SubmitResults(ctx, username, aggregate)
			return err
		})
		all := append([]engine.Option{engine.WithNotifier(notifier)}, opts...)
		return engine.NewController(source, submitter, all...)
	}
}

type WSHandler struct {
	tokens   *TokenIssuer
	sessions SessionFactory
	logger   *zap.Logger
	metrics  *Metrics
	upgrader websocket.Upgrader
}

func NewWSHandler(tokens *TokenIssuer, sessions SessionFactory, logger *zap.Logger, metrics *Metrics) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
		metrics:  metrics,
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

type actionPayload struct {
	Category string           `json:"category"`
	Key      domain.OptionKey `json:"key"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz session per
// connection. Inbound messages are session actions; outbound messages are
// snapshots, notifications and errors.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	username, err := h.tokens.Verify(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "missing or invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.LiveSessions.Inc()
		defer h.metrics.LiveSessions.Dec()
	}

	// Notifications arrive from timer and submission goroutines and must never
	// block them; overflow is dropped.
	notes := make(chan engine.Notification, 16)
	ctrl := h.sessions(username, engine.NotifierFunc(func(n engine.Notification) {
		select {
		case notes <- n:
		default:
		}
	}))
	defer ctrl.Close()

	updates, cancel := ctrl.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	forwardDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(forwardDone)
		for {
			var msg outboundMessage[any]
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				msg = outboundMessage[any]{Type: "snapshot", Payload: snap}
			case note := <-notes:
				msg = outboundMessage[any]{Type: "notification", Payload: note}
			case <-closeSignals:
				return
			}
			if !enqueue(send, closeSignals, msg) {
				return
			}
		}
	}()

	h.logger.Info("quiz session opened", zap.String("username", username))
	// reply gives up once the writer is gone so the read loop never blocks on a
	// full send buffer.
	reply := func(message string) bool {
		return enqueue(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}})
	}
	ctx := r.Context()
	open := true
	if category := r.URL.Query().Get("category"); category != "" {
		if err := ctrl.Dispatch(ctx, engine.Action{Type: engine.ActionLoad, Category: category}); err != nil {
			open = reply(err.Error())
		}
	}

	for open {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var payload actionPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				open = reply("invalid action payload")
				continue
			}
		}
		action := engine.Action{Type: engine.ActionType(inbound.Type), Category: payload.Category, Key: payload.Key}
		if err := ctrl.Dispatch(ctx, action); err != nil {
			open = reply(err.Error())
		}
	}
	h.logger.Info("quiz session closed", zap.String("username", username))

	close(closeSignals)
	<-forwardDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer unless done is closed first.
func enqueue[T any](send chan T, done <-chan struct{}, msg T) bool {
	select {
	case send <- msg:
		return true
	case <-done:
		return false
	}
}
