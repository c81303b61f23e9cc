// Package websocket pushes notifications (moderation outcomes, ticket
// replies) to connected users. One user may hold several connections;
// the hub fans a notification out to all of them.
package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification targets one user's open connections.
type Notification struct {
	TargetUserID uuid.UUID
	Payload      []byte
}

// Hub maintains the set of active clients and routes notifications.
type Hub struct {
	// Registered clients, user ID to set of active connections.
	Clients map[uuid.UUID]map[*Client]bool

	// Site-wide announcements.
	Broadcast chan []byte

	// Per-user notifications.
	Notify chan *Notification

	Register   chan *Client
	Unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte),
		Notify:     make(chan *Notification),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[uuid.UUID]map[*Client]bool),
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("Notification hub started.")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; !ok {
				h.Clients[client.UserID] = make(map[*Client]bool)
			}
			h.Clients[client.UserID][client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client registered for user %s", client.UserID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.Clients[client.UserID]; ok {
				if _, clientOk := userClients[client]; clientOk {
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.Clients, client.UserID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.Broadcast:
			h.mu.RLock()
			for _, userClients := range h.Clients {
				for client := range userClients {
					select {
					case client.Send <- message:
					default:
						log.Printf("Broadcast send buffer full for client of user %s", client.UserID)
					}
				}
			}
			h.mu.RUnlock()

		case n := <-h.Notify:
			h.mu.RLock()
			for client := range h.Clients[n.TargetUserID] {
				select {
				case client.Send <- n.Payload:
				default:
					log.Printf("Send channel full for client of user %s, notification dropped", client.UserID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// SendDirectMessage queues a notification for one user. Safe to call from
// actors; drops the notification if the hub is blocked for over a second.
func (h *Hub) SendDirectMessage(targetUserID uuid.UUID, payload []byte) {
	n := &Notification{TargetUserID: targetUserID, Payload: payload}
	select {
	case h.Notify <- n:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing notification for user %s", targetUserID)
	}
}
