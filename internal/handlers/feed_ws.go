package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sportlog/backend/internal/middleware"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer for the REST API;
		// the socket itself only streams data the caller could poll anyway.
		return true
	},
}

// FeedSocket streams new public activities to the client over WebSocket.
// Authentication uses the session token, either as a Bearer header or a
// `token` query parameter for browser WebSocket clients.
func (h *Handler) FeedSocket(w http.ResponseWriter, r *http.Request) {
	if h.Live == nil {
		http.Error(w, "live feed is not available", http.StatusServiceUnavailable)
		return
	}

	token := middleware.ExtractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}

	userID, ok, err := h.Sessions.Validate(r.Context(), token)
	if err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	h.Live.Register(userID, conn)
	defer h.Live.Unregister(userID)

	// Reader loop: the client sends nothing we act on, but reading is
	// what surfaces pings and disconnects.
	conn.SetReadLimit(4 * 1024)
	conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}
