package actors

import (
	"encoding/json"
	"log"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"paw-grove/internal/models"
	"paw-grove/internal/utils"
	"paw-grove/internal/websocket"
)

// Message types for moderation operations
type (
	FileReportMsg struct {
		ReporterID uuid.UUID
		Target     models.ReportTarget
		TargetID   uuid.UUID
		Reason     string
	}

	GetOpenReportsMsg struct{}

	// ResolveReportMsg closes a report. Action is what the moderator
	// chose: "dismiss", "delete_post", or "block_author".
	ResolveReportMsg struct {
		ReportID    uuid.UUID
		ModeratorID uuid.UUID
		Action      string
		// AuthorID is required for block_author; the HTTP layer resolves
		// it from the reported content before sending.
		AuthorID uuid.UUID
	}

	SubmitAppealMsg struct {
		UserID  uuid.UUID
		Message string
	}

	GetPendingAppealsMsg struct{}

	ReviewAppealMsg struct {
		AppealID    uuid.UUID
		ModeratorID uuid.UUID
		Approve     bool
	}

	RequestVerificationMsg struct {
		UserID       uuid.UUID
		Organization string
		Evidence     string
	}

	GetPendingVerificationsMsg struct{}

	ReviewVerificationMsg struct {
		RequestID   uuid.UUID
		ModeratorID uuid.UUID
		Approve     bool
	}
)

// ModerationActor works the three staff queues: content reports, ban
// appeals, and breeder/shelter verification requests. Resolutions fan out
// to the post and user actors and notify affected users over the hub.
type ModerationActor struct {
	reports       map[uuid.UUID]*models.Report
	appeals       map[uuid.UUID]*models.BanAppeal
	verifications map[uuid.UUID]*models.VerificationRequest
	postActor     *actor.PID
	userActor     *actor.PID
	hub           *websocket.Hub
	metrics       *utils.MetricsCollector
}

func NewModerationActor(postActor, userActor *actor.PID, hub *websocket.Hub, metrics *utils.MetricsCollector) actor.Actor {
	return &ModerationActor{
		reports:       make(map[uuid.UUID]*models.Report),
		appeals:       make(map[uuid.UUID]*models.BanAppeal),
		verifications: make(map[uuid.UUID]*models.VerificationRequest),
		postActor:     postActor,
		userActor:     userActor,
		hub:           hub,
		metrics:       metrics,
	}
}

func (a *ModerationActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("ModerationActor started")

	case *FileReportMsg:
		a.handleFileReport(context, msg)
	case *GetOpenReportsMsg:
		a.handleGetOpenReports(context)
	case *ResolveReportMsg:
		a.handleResolveReport(context, msg)
	case *SubmitAppealMsg:
		a.handleSubmitAppeal(context, msg)
	case *GetPendingAppealsMsg:
		a.handleGetPendingAppeals(context)
	case *ReviewAppealMsg:
		a.handleReviewAppeal(context, msg)
	case *RequestVerificationMsg:
		a.handleRequestVerification(context, msg)
	case *GetPendingVerificationsMsg:
		a.handleGetPendingVerifications(context)
	case *ReviewVerificationMsg:
		a.handleReviewVerification(context, msg)

	default:
		log.Printf("ModerationActor: Unknown message type: %T", msg)
	}
}

func (a *ModerationActor) handleFileReport(context actor.Context, msg *FileReportMsg) {
	startTime := time.Now()

	if msg.Reason == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "report reason is required", nil))
		return
	}

	report := &models.Report{
		ID:         uuid.New(),
		ReporterID: msg.ReporterID,
		Target:     msg.Target,
		TargetID:   msg.TargetID,
		Reason:     msg.Reason,
		Status:     models.ReportOpen,
		CreatedAt:  time.Now(),
	}
	a.reports[report.ID] = report

	a.metrics.AddOperationLatency("file_report", time.Since(startTime))
	context.Respond(report)
}

func (a *ModerationActor) handleGetOpenReports(context actor.Context) {
	open := make([]*models.Report, 0)
	for _, r := range a.reports {
		if r.Status == models.ReportOpen {
			open = append(open, r)
		}
	}
	context.Respond(open)
}

func (a *ModerationActor) handleResolveReport(context actor.Context, msg *ResolveReportMsg) {
	report, exists := a.reports[msg.ReportID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrReportNotFound, "report not found", nil))
		return
	}
	if report.Status != models.ReportOpen {
		context.Respond(utils.NewAppError(utils.ErrDuplicate, "report already resolved", nil))
		return
	}

	now := time.Now()
	report.ResolvedAt = &now
	report.ResolvedBy = &msg.ModeratorID

	switch msg.Action {
	case "dismiss":
		report.Status = models.ReportDismissed
	case "delete_post":
		report.Status = models.ReportResolved
		context.Send(a.postActor, &DeletePostMsg{PostID: report.TargetID})
	case "block_author":
		report.Status = models.ReportResolved
		context.Send(a.postActor, &BlockAuthorMsg{AuthorID: msg.AuthorID})
		context.Send(a.userActor, &BanUserMsg{UserID: msg.AuthorID})
	default:
		report.ResolvedAt = nil
		report.ResolvedBy = nil
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "unknown resolution action: "+msg.Action, nil))
		return
	}

	a.notify(report.ReporterID, "report_resolved", map[string]string{
		"reportId": report.ID.String(),
		"status":   string(report.Status),
	})
	context.Respond(report)
}

func (a *ModerationActor) handleSubmitAppeal(context actor.Context, msg *SubmitAppealMsg) {
	for _, appeal := range a.appeals {
		if appeal.UserID == msg.UserID && appeal.Status == models.AppealPending {
			context.Respond(utils.NewAppError(utils.ErrDuplicate, "an appeal is already pending", nil))
			return
		}
	}

	appeal := &models.BanAppeal{
		ID:        uuid.New(),
		UserID:    msg.UserID,
		Message:   msg.Message,
		Status:    models.AppealPending,
		CreatedAt: time.Now(),
	}
	a.appeals[appeal.ID] = appeal
	context.Respond(appeal)
}

func (a *ModerationActor) handleGetPendingAppeals(context actor.Context) {
	pending := make([]*models.BanAppeal, 0)
	for _, appeal := range a.appeals {
		if appeal.Status == models.AppealPending {
			pending = append(pending, appeal)
		}
	}
	context.Respond(pending)
}

func (a *ModerationActor) handleReviewAppeal(context actor.Context, msg *ReviewAppealMsg) {
	appeal, exists := a.appeals[msg.AppealID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrAppealNotFound, "appeal not found", nil))
		return
	}
	if appeal.Status != models.AppealPending {
		context.Respond(utils.NewAppError(utils.ErrDuplicate, "appeal already reviewed", nil))
		return
	}

	now := time.Now()
	appeal.ReviewedAt = &now
	appeal.ReviewedBy = &msg.ModeratorID
	if msg.Approve {
		appeal.Status = models.AppealApproved
		context.Send(a.userActor, &UnbanUserMsg{UserID: appeal.UserID})
	} else {
		appeal.Status = models.AppealDenied
	}

	a.notify(appeal.UserID, "appeal_reviewed", map[string]string{
		"appealId": appeal.ID.String(),
		"status":   string(appeal.Status),
	})
	context.Respond(appeal)
}

func (a *ModerationActor) handleRequestVerification(context actor.Context, msg *RequestVerificationMsg) {
	if msg.Organization == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "organization is required", nil))
		return
	}

	req := &models.VerificationRequest{
		ID:           uuid.New(),
		UserID:       msg.UserID,
		Organization: msg.Organization,
		Evidence:     msg.Evidence,
		Status:       models.VerificationPending,
		CreatedAt:    time.Now(),
	}
	a.verifications[req.ID] = req
	context.Respond(req)
}

func (a *ModerationActor) handleGetPendingVerifications(context actor.Context) {
	pending := make([]*models.VerificationRequest, 0)
	for _, req := range a.verifications {
		if req.Status == models.VerificationPending {
			pending = append(pending, req)
		}
	}
	context.Respond(pending)
}

func (a *ModerationActor) handleReviewVerification(context actor.Context, msg *ReviewVerificationMsg) {
	req, exists := a.verifications[msg.RequestID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "verification request not found", nil))
		return
	}
	if req.Status != models.VerificationPending {
		context.Respond(utils.NewAppError(utils.ErrDuplicate, "request already reviewed", nil))
		return
	}

	now := time.Now()
	req.ReviewedAt = &now
	req.ReviewedBy = &msg.ModeratorID
	if msg.Approve {
		req.Status = models.VerificationApproved
		context.Send(a.userActor, &SetVerifiedMsg{UserID: req.UserID, Verified: true})
	} else {
		req.Status = models.VerificationRejected
	}

	a.notify(req.UserID, "verification_reviewed", map[string]string{
		"requestId": req.ID.String(),
		"status":    string(req.Status),
	})
	context.Respond(req)
}

// notify pushes a notification to the user's open connections, if any.
func (a *ModerationActor) notify(userID uuid.UUID, kind string, data map[string]string) {
	if a.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{"type": kind, "data": data})
	if err != nil {
		log.Printf("ModerationActor: failed to marshal notification: %v", err)
		return
	}
	a.hub.SendDirectMessage(userID, payload)
}
