package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportTarget identifies what kind of content a report points at.
type ReportTarget string

const (
	ReportTargetPost    ReportTarget = "post"
	ReportTargetComment ReportTarget = "comment"
	ReportTargetUser    ReportTarget = "user"
)

type ReportStatus string

const (
	ReportOpen      ReportStatus = "open"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

type Report struct {
	ID         uuid.UUID    `json:"id"`
	ReporterID uuid.UUID    `json:"reporterId"`
	Target     ReportTarget `json:"target"`
	TargetID   uuid.UUID    `json:"targetId"`
	Reason     string       `json:"reason"`
	Status     ReportStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	ResolvedAt *time.Time   `json:"resolvedAt,omitempty"`
	ResolvedBy *uuid.UUID   `json:"resolvedBy,omitempty"`
}

type AppealStatus string

const (
	AppealPending  AppealStatus = "pending"
	AppealApproved AppealStatus = "approved"
	AppealDenied   AppealStatus = "denied"
)

// BanAppeal is a banned user's request to have the ban reviewed.
type BanAppeal struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"userId"`
	Message    string       `json:"message"`
	Status     AppealStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	ReviewedAt *time.Time   `json:"reviewedAt,omitempty"`
	ReviewedBy *uuid.UUID   `json:"reviewedBy,omitempty"`
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// VerificationRequest is a breeder/shelter account asking for the
// verified badge.
type VerificationRequest struct {
	ID           uuid.UUID          `json:"id"`
	UserID       uuid.UUID          `json:"userId"`
	Organization string             `json:"organization"`
	Evidence     string             `json:"evidence"`
	Status       VerificationStatus `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	ReviewedAt   *time.Time         `json:"reviewedAt,omitempty"`
	ReviewedBy   *uuid.UUID         `json:"reviewedBy,omitempty"`
}
