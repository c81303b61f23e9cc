package models

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketAnswered TicketStatus = "answered"
	TicketClosed   TicketStatus = "closed"
)

// SupportTicket is a user-filed support request with a reply thread.
type SupportTicket struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"userId"`
	Subject   string        `json:"subject"`
	Body      string        `json:"body"`
	Category  string        `json:"category"` // account, content, adoption, other
	Status    TicketStatus  `json:"status"`
	Replies   []TicketReply `json:"replies"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type TicketReply struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"authorId"`
	IsStaff   bool      `json:"isStaff"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
