package actors

import (
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"paw-grove/internal/models"
	"paw-grove/internal/utils"
	"paw-grove/internal/websocket"
)

// Message types for support ticket operations
type (
	OpenTicketMsg struct {
		UserID   uuid.UUID
		Subject  string
		Body     string
		Category string
	}

	GetTicketMsg struct {
		TicketID uuid.UUID
	}

	GetUserTicketsMsg struct {
		UserID uuid.UUID
	}

	GetOpenTicketsMsg struct{}

	ReplyTicketMsg struct {
		TicketID uuid.UUID
		AuthorID uuid.UUID
		IsStaff  bool
		Body     string
	}

	CloseTicketMsg struct {
		TicketID uuid.UUID
	}
)

// SupportActor manages the support ticket queue and its reply threads.
// Staff replies flip the ticket to answered and ping the filer over the
// hub.
type SupportActor struct {
	tickets map[uuid.UUID]*models.SupportTicket
	hub     *websocket.Hub
	metrics *utils.MetricsCollector
}

func NewSupportActor(hub *websocket.Hub, metrics *utils.MetricsCollector) actor.Actor {
	return &SupportActor{
		tickets: make(map[uuid.UUID]*models.SupportTicket),
		hub:     hub,
		metrics: metrics,
	}
}

func (a *SupportActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("SupportActor started")

	case *OpenTicketMsg:
		a.handleOpenTicket(context, msg)
	case *GetTicketMsg:
		a.handleGetTicket(context, msg)
	case *GetUserTicketsMsg:
		a.handleGetUserTickets(context, msg)
	case *GetOpenTicketsMsg:
		a.handleGetOpenTickets(context)
	case *ReplyTicketMsg:
		a.handleReplyTicket(context, msg)
	case *CloseTicketMsg:
		a.handleCloseTicket(context, msg)

	default:
		log.Printf("SupportActor: Unknown message type: %T", msg)
	}
}

func (a *SupportActor) handleOpenTicket(context actor.Context, msg *OpenTicketMsg) {
	startTime := time.Now()

	if msg.Subject == "" || msg.Body == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "subject and body are required", nil))
		return
	}

	now := time.Now()
	ticket := &models.SupportTicket{
		ID:        uuid.New(),
		UserID:    msg.UserID,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Category:  msg.Category,
		Status:    models.TicketOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.tickets[ticket.ID] = ticket

	a.metrics.AddOperationLatency("open_ticket", time.Since(startTime))
	context.Respond(ticket)
}

func (a *SupportActor) handleGetTicket(context actor.Context, msg *GetTicketMsg) {
	if ticket, exists := a.tickets[msg.TicketID]; exists {
		context.Respond(ticket)
	} else {
		context.Respond(utils.NewAppError(utils.ErrTicketNotFound, "ticket not found", nil))
	}
}

func (a *SupportActor) handleGetUserTickets(context actor.Context, msg *GetUserTicketsMsg) {
	tickets := make([]*models.SupportTicket, 0)
	for _, ticket := range a.tickets {
		if ticket.UserID == msg.UserID {
			tickets = append(tickets, ticket)
		}
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].UpdatedAt.After(tickets[j].UpdatedAt)
	})
	context.Respond(tickets)
}

func (a *SupportActor) handleGetOpenTickets(context actor.Context) {
	tickets := make([]*models.SupportTicket, 0)
	for _, ticket := range a.tickets {
		if ticket.Status != models.TicketClosed {
			tickets = append(tickets, ticket)
		}
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].UpdatedAt.After(tickets[j].UpdatedAt)
	})
	context.Respond(tickets)
}

func (a *SupportActor) handleReplyTicket(context actor.Context, msg *ReplyTicketMsg) {
	ticket, exists := a.tickets[msg.TicketID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrTicketNotFound, "ticket not found", nil))
		return
	}
	if ticket.Status == models.TicketClosed {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "ticket is closed", nil))
		return
	}
	if msg.Body == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "reply body is required", nil))
		return
	}

	reply := models.TicketReply{
		ID:        uuid.New(),
		AuthorID:  msg.AuthorID,
		IsStaff:   msg.IsStaff,
		Body:      msg.Body,
		CreatedAt: time.Now(),
	}
	ticket.Replies = append(ticket.Replies, reply)
	ticket.UpdatedAt = reply.CreatedAt

	if msg.IsStaff {
		ticket.Status = models.TicketAnswered
		a.notifyFiler(ticket)
	} else {
		ticket.Status = models.TicketOpen
	}
	context.Respond(ticket)
}

func (a *SupportActor) handleCloseTicket(context actor.Context, msg *CloseTicketMsg) {
	ticket, exists := a.tickets[msg.TicketID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrTicketNotFound, "ticket not found", nil))
		return
	}
	ticket.Status = models.TicketClosed
	ticket.UpdatedAt = time.Now()
	context.Respond(ticket)
}

func (a *SupportActor) notifyFiler(ticket *models.SupportTicket) {
	if a.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"type":     "ticket_answered",
		"ticketId": ticket.ID.String(),
		"subject":  ticket.Subject,
	})
	if err != nil {
		log.Printf("SupportActor: failed to marshal notification: %v", err)
		return
	}
	a.hub.SendDirectMessage(ticket.UserID, payload)
}
