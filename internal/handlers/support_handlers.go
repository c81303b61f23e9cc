package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"paw-grove/internal/engine/actors"
	"paw-grove/internal/perms"
	"paw-grove/internal/utils"
)

// OpenTicketRequest represents a new support ticket
type OpenTicketRequest struct {
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Category string `json:"category,omitempty"`
}

// TicketReplyRequest adds a reply to a ticket thread
type TicketReplyRequest struct {
	TicketID string `json:"ticketId"`
	Body     string `json:"body"`
}

// TicketIDRequest is the shared body for single-ticket operations
type TicketIDRequest struct {
	TicketID string `json:"ticketId"`
}

// HandleTicket opens a ticket (POST), fetches one (GET ?id=), or lists
// the viewer's tickets (GET without id).
func (s *Server) HandleTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req OpenTicketRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			if req.Subject == "" || req.Body == "" {
				http.Error(w, "Subject and body are required", http.StatusBadRequest)
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetSupportActor(), &actors.OpenTicketMsg{
				UserID:   userID,
				Subject:  req.Subject,
				Body:     req.Body,
				Category: req.Category,
			}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to open ticket", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrTicketNotFound)

		case http.MethodGet:
			if idParam := r.URL.Query().Get("id"); idParam != "" {
				ticketID, err := uuid.Parse(idParam)
				if err != nil {
					http.Error(w, "Invalid ticket ID format", http.StatusBadRequest)
					return
				}
				future := s.Context.RequestFuture(s.Engine.GetSupportActor(), &actors.GetTicketMsg{TicketID: ticketID}, s.RequestTimeout)
				result, err := future.Result()
				if err != nil {
					http.Error(w, "Failed to get ticket", http.StatusInternalServerError)
					return
				}
				respondActorResult(w, result, utils.ErrTicketNotFound)
				return
			}

			future := s.Context.RequestFuture(s.Engine.GetSupportActor(), &actors.GetUserTicketsMsg{UserID: userID}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to get tickets", http.StatusInternalServerError)
				return
			}
			respondJSON(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleOpenTickets lists the unanswered queue. Staff only.
func (s *Server) HandleOpenTickets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.requireModerator(w, r); !ok {
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetSupportActor(), &actors.GetOpenTicketsMsg{}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to get open tickets", http.StatusInternalServerError)
			return
		}
		respondJSON(w, result)
	}
}

// HandleTicketReply adds a reply. Staff replies flip the ticket to
// answered and notify the filer.
func (s *Server) HandleTicketReply() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}
		viewer := s.viewerProfile(w, userID)
		if viewer == nil {
			return
		}

		var req TicketReplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		ticketID, err := uuid.Parse(req.TicketID)
		if err != nil {
			http.Error(w, "Invalid ticket ID format", http.StatusBadRequest)
			return
		}
		if req.Body == "" {
			http.Error(w, "Reply body is required", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetSupportActor(), &actors.ReplyTicketMsg{
			TicketID: ticketID,
			AuthorID: userID,
			IsStaff:  perms.CanModerate(viewer.Role),
			Body:     req.Body,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to reply to ticket", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrTicketNotFound)
	}
}

// HandleCloseTicket closes a ticket thread.
func (s *Server) HandleCloseTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := authedUserID(w, r); !ok {
			return
		}

		var req TicketIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		ticketID, err := uuid.Parse(req.TicketID)
		if err != nil {
			http.Error(w, "Invalid ticket ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetSupportActor(), &actors.CloseTicketMsg{TicketID: ticketID}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to close ticket", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrTicketNotFound)
	}
}
