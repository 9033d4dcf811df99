package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fairtrack/fairtrack-api/internal/realtime"
)

// WSHandler upgrades realtime channel connections after validating the
// HMAC handshake.
type WSHandler struct {
	hub      *realtime.Hub
	secret   string
	window   time.Duration
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a WSHandler verifying handshakes against the
// given shared secret and freshness window.
func NewWSHandler(hub *realtime.Hub, secret string, window time.Duration, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		secret: secret,
		window: window,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With("component", "ws_handler"),
	}
}

// Connect handles GET /ws?identity=&timestamp=&token=. An invalid or
// stale handshake is rejected with a bare status and no detail; the
// response must not help an unauthenticated peer probe identities.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	identity := q.Get("identity")

	err := realtime.VerifyHandshake(
		h.secret,
		identity,
		q.Get("timestamp"),
		q.Get("token"),
		h.window,
		time.Now(),
	)
	if err != nil {
		h.logger.Debug("handshake rejected", "remote_addr", r.RemoteAddr)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	conn := realtime.NewConn(ws)
	h.hub.Register(identity, conn)

	// Reader goroutine: the client never sends application data, but
	// reading is what surfaces close frames and pong responses.
	go func() {
		defer func() {
			h.hub.Unregister(identity, conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
