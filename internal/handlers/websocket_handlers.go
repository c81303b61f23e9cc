package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"

	"paw-grove/internal/engine/actors"
	"paw-grove/internal/middleware"
	"paw-grove/internal/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to config.AllowedOrigins
		return true
	},
}

// HandleWebSocket upgrades the connection and registers the client with
// the notification hub. The browser WebSocket API cannot set headers, so
// the JWT arrives as a query parameter.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ValidateToken(tokenString)
		if err != nil {
			log.Printf("WebSocket connection failed: invalid token: %v", err)
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		userID := claims.UserID
		if userID == uuid.Nil {
			http.Error(w, "Invalid user ID in token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for user %s: %v", userID, err)
			return
		}

		client := &websocket.Client{
			Hub:    s.Hub,
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
		}
		client.Hub.Register <- client

		s.Context.Send(s.Engine.GetUserActor(), &actors.ConnectUserMsg{UserID: userID})
		log.Printf("WebSocket client registered for user %s", userID)

		go client.WritePump()
		go client.ReadPump()
	}
}
