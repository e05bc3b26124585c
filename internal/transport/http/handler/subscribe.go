package handler

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/sharinghood-api/internal/logging"
	"github.com/sharinghood-api/internal/realtime"
	"github.com/sharinghood-api/internal/transport/http/middleware"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

type messageAuthorizer interface {
	Authorize(ctx context.Context, userID, notificationID string) error
}

type hubSubscriber interface {
	Subscribe(notificationID, userID string) *realtime.Client
}

// SubscribeHandler streams the new messages of one notification over a websocket.
type SubscribeHandler struct {
	verifier middleware.TokenVerifier
	authz    messageAuthorizer
	hub      hubSubscriber
	upgrader websocket.Upgrader
}

// NewSubscribeHandler accepts browser origins from allowedOrigins; "*" allows any.
func NewSubscribeHandler(verifier middleware.TokenVerifier, authz messageAuthorizer, hub hubSubscriber, allowedOrigins []string) *SubscribeHandler {
	return &SubscribeHandler{
		verifier: verifier,
		authz:    authz,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Subscribe authenticates with ?token= (browsers cannot set headers on a
// websocket handshake) or a Bearer header, checks the caller takes part in
// the notification, then upgrades.
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		tok = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if tok == "" {
		writeError(w, http.StatusUnauthorized, "token required")
		return
	}
	claims, err := h.verifier.Verify(tok)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	notificationID := chi.URLParam(r, "id")
	if err := h.authz.Authorize(r.Context(), claims.UserID, notificationID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	client := h.hub.Subscribe(notificationID, claims.UserID)
	defer client.Close()

	log := logging.Ctx(r.Context()).With().
		Str("notification_id", notificationID).
		Str("user_id", claims.UserID).
		Logger()
	log.Debug().Msg("subscriber connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(conn, client)
	}()

	// The client only sends pongs and close frames; reading drives both.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	client.Close()
	<-done
	log.Debug().Msg("subscriber disconnected")
}

// writePump forwards hub payloads and pings until Send is closed or a write fails.
func writePump(conn *websocket.Conn, client *realtime.Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
