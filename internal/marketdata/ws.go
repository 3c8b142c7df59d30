package marketdata

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const streamWriteTimeout = 10 * time.Second

// TokenVerifier resolves a bearer token to its subject.
type TokenVerifier interface {
	ParseToken(token string) (string, error)
}

type controlMessage struct {
	Type string `json:"type"`
}

// StreamWS serves the live price stream. Clients opt in with a
// subscribePrices control message and opt out with unsubscribePrices. Other
// message types, including the account-room subscribe/unsubscribe events,
// are ignored.
type StreamWS struct {
	hub      *Hub
	verifier TokenVerifier
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewStreamWS builds the handler. A nil verifier leaves the stream open.
func NewStreamWS(hub *Hub, verifier TokenVerifier, origin string, logger *zap.Logger) *StreamWS {
	return &StreamWS{
		hub:      hub,
		verifier: verifier,
		log:      logger.Named("stream"),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) }},
	}
}

func (h *StreamWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subject := ""
	if h.verifier != nil {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		var err error
		if subject, err = h.verifier.ParseToken(token); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	log := h.log.With(zap.String("remote", r.RemoteAddr), zap.String("subject", subject))

	ctrl := make(chan string, 8)
	done := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		defer close(done)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg controlMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				continue
			}
			select {
			case ctrl <- strings.TrimSpace(msg.Type):
			case <-quit:
				return
			}
		}
	}()

	var sub *Subscription
	defer func() { h.hub.Unsubscribe(sub) }()
	for {
		var events <-chan Event
		if sub != nil {
			events = sub.C()
		}
		select {
		case kind := <-ctrl:
			switch kind {
			case "subscribePrices":
				if sub == nil {
					sub = h.hub.Subscribe()
					log.Debug("client subscribed")
				}
			case "unsubscribePrices":
				if sub != nil {
					h.hub.Unsubscribe(sub)
					sub = nil
					log.Debug("client unsubscribed")
				}
			}
		case evt, ok := <-events:
			if !ok {
				sub = nil
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" || origin == "" {
		return true
	}
	reqOrigin := r.Header.Get("Origin")
	if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
		if strings.Contains(reqOrigin, "localhost") || strings.Contains(reqOrigin, "127.0.0.1") {
			return true
		}
	}
	return strings.EqualFold(reqOrigin, origin)
}
