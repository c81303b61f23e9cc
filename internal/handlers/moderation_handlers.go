package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"paw-grove/internal/engine/actors"
	"paw-grove/internal/models"
	"paw-grove/internal/perms"
	"paw-grove/internal/utils"
)

// FileReportRequest represents a request to report content
type FileReportRequest struct {
	Target   string `json:"target"` // post, comment, user
	TargetID string `json:"targetId"`
	Reason   string `json:"reason"`
}

// ResolveReportRequest closes a report with a moderation action
type ResolveReportRequest struct {
	ReportID string `json:"reportId"`
	Action   string `json:"action"` // dismiss, delete_post, block_author
}

// AppealRequest represents a banned user's appeal
type AppealRequest struct {
	Message string `json:"message"`
}

// ReviewRequest approves or denies a queued appeal or verification
type ReviewRequest struct {
	ID      string `json:"id"`
	Approve bool   `json:"approve"`
}

// VerificationRequestBody asks for the verified shelter/breeder badge
type VerificationRequestBody struct {
	Organization string `json:"organization"`
	Evidence     string `json:"evidence"`
}

// requireModerator loads the viewer and rejects non-staff. Returns the
// viewer ID, or false after writing the error response.
func (s *Server) requireModerator(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return uuid.Nil, false
	}
	viewer := s.viewerProfile(w, userID)
	if viewer == nil {
		return uuid.Nil, false
	}
	if !perms.CanModerate(viewer.Role) {
		appErr := utils.NewAppError(utils.ErrForbidden, "moderator role required", nil)
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return uuid.Nil, false
	}
	return userID, true
}

// HandleReport files a report (POST) or lists the open queue (GET,
// moderators only).
func (s *Server) HandleReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			userID, ok := authedUserID(w, r)
			if !ok {
				return
			}

			var req FileReportRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			target := models.ReportTarget(req.Target)
			switch target {
			case models.ReportTargetPost, models.ReportTargetComment, models.ReportTargetUser:
			default:
				http.Error(w, "Unknown report target", http.StatusBadRequest)
				return
			}
			targetID, err := uuid.Parse(req.TargetID)
			if err != nil {
				http.Error(w, "Invalid target ID format", http.StatusBadRequest)
				return
			}

			// Self-reports on posts are rejected up front; the actor
			// cannot see authorship of arbitrary targets.
			if target == models.ReportTargetPost {
				if post := s.fetchPost(w, targetID); post == nil {
					return
				} else if !perms.CanReport(userID, post.AuthorID) {
					appErr := utils.NewAppError(utils.ErrForbidden, "cannot report your own content", nil)
					http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
					return
				}
			}

			future := s.Context.RequestFuture(s.Engine.GetModerationActor(), &actors.FileReportMsg{
				ReporterID: userID,
				Target:     target,
				TargetID:   targetID,
				Reason:     req.Reason,
			}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to file report", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrReportNotFound)

		case http.MethodGet:
			if _, ok := s.requireModerator(w, r); !ok {
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetModerationActor(), &actors.GetOpenReportsMsg{}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to get reports", http.StatusInternalServerError)
				return
			}
			respondJSON(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleResolveReport closes a report with a moderation action.
func (s *Server) HandleResolveReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		moderatorID, ok := s.requireModerator(w, r)
		if !ok {
			return
		}

		var req ResolveReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		reportID, err := uuid.Parse(req.ReportID)
		if err != nil {
			http.Error(w, "Invalid report ID format", http.StatusBadRequest)
			return
		}
		switch req.Action {
		case "dismiss", "delete_post", "block_author":
		default:
			http.Error(w, "Unknown action", http.StatusBadRequest)
			return
		}

		msg := &actors.ResolveReportMsg{
			ReportID:    reportID,
			ModeratorID: moderatorID,
			Action:      req.Action,
		}

		// block_author needs the author of the reported content; resolve
		// it here where we can reach the post actor.
		if req.Action == "block_author" {
			report := s.fetchReport(w, reportID)
			if report == nil {
				return
			}
			switch report.Target {
			case models.ReportTargetUser:
				msg.AuthorID = report.TargetID
			case models.ReportTargetPost:
				post := s.fetchPost(w, report.TargetID)
				if post == nil {
					return
				}
				msg.AuthorID = post.AuthorID
			default:
				http.Error(w, "Cannot block the author of this target", http.StatusBadRequest)
				return
			}
		}

		future := s.Context.RequestFuture(s.Engine.GetModerationActor(), msg, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to resolve report", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrReportNotFound)
	}
}

func (s *Server) fetchReport(w http.ResponseWriter, reportID uuid.UUID) *models.Report {
	future := s.Context.RequestFuture(s.Engine.GetModerationActor(), &actors.GetOpenReportsMsg{}, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		http.Error(w, "Failed to get reports", http.StatusInternalServerError)
		return nil
	}
	reports, ok := result.([]*models.Report)
	if !ok {
		http.Error(w, "Failed to get reports", http.StatusInternalServerError)
		return nil
	}
	for _, report := range reports {
		if report.ID == reportID {
			return report
		}
	}
	appErr := utils.NewAppError(utils.ErrReportNotFound, "report not found", nil)
	http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
	return nil
}

// HandleAppeal submits a ban appeal (POST) or lists the pending queue
// (GET, moderators only).
func (s *Server) HandleAppeal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			userID, ok := authedUserID(w, r)
			if !ok {
				return
			}
			var req AppealRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetModerationActor(), &actors.SubmitAppealMsg{
				UserID:  userID,
				Message: req.Message,
			}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to submit appeal", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrAppealNotFound)

		case http.MethodGet:
			if _, ok := s.requireModerator(w, r); !ok {
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetModerationActor(), &actors.GetPendingAppealsMsg{}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to get appeals", http.StatusInternalServerError)
				return
			}
			respondJSON(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleReviewAppeal approves or denies a pending appeal.
func (s *Server) HandleReviewAppeal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		moderatorID, ok := s.requireModerator(w, r)
		if !ok {
			return
		}

		var req ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		appealID, err := uuid.Parse(req.ID)
		if err != nil {
			http.Error(w, "Invalid appeal ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetModerationActor(), &actors.ReviewAppealMsg{
			AppealID:    appealID,
			ModeratorID: moderatorID,
			Approve:     req.Approve,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to review appeal", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrAppealNotFound)
	}
}

// HandleVerification requests the verified badge (POST) or lists the
// pending queue (GET, moderators only).
func (s *Server) HandleVerification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			userID, ok := authedUserID(w, r)
			if !ok {
				return
			}
			var req VerificationRequestBody
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			if req.Organization == "" {
				http.Error(w, "Organization is required", http.StatusBadRequest)
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetModerationActor(), &actors.RequestVerificationMsg{
				UserID:       userID,
				Organization: req.Organization,
				Evidence:     req.Evidence,
			}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to request verification", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrNotFound)

		case http.MethodGet:
			if _, ok := s.requireModerator(w, r); !ok {
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetModerationActor(), &actors.GetPendingVerificationsMsg{}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to get verification requests", http.StatusInternalServerError)
				return
			}
			respondJSON(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleReviewVerification approves or rejects a verification request.
func (s *Server) HandleReviewVerification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		moderatorID, ok := s.requireModerator(w, r)
		if !ok {
			return
		}

		var req ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		requestID, err := uuid.Parse(req.ID)
		if err != nil {
			http.Error(w, "Invalid request ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetModerationActor(), &actors.ReviewVerificationMsg{
			RequestID:   requestID,
			ModeratorID: moderatorID,
			Approve:     req.Approve,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to review verification", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrNotFound)
	}
}
