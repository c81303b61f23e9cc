package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"paw-grove/internal/engine/actors"
	"paw-grove/internal/models"
	"paw-grove/internal/perms"
	"paw-grove/internal/utils"
)

// CreateCommentRequest represents a request to create a comment
type CreateCommentRequest struct {
	PostID   string `json:"postId"`
	Content  string `json:"content"`
	ParentID string `json:"parentId,omitempty"`
}

// EditCommentRequest represents a request to edit a comment
type EditCommentRequest struct {
	CommentID string `json:"commentId"`
	Content   string `json:"content"`
}

// CommentIDRequest is the shared body for single-comment operations
type CommentIDRequest struct {
	CommentID string `json:"commentId"`
}

// HandleComment handles comment create/edit/delete and single-comment
// lookup.
func (s *Server) HandleComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.handleCreateComment(w, r)
		case http.MethodPut:
			s.handleEditComment(w, r)
		case http.MethodDelete:
			s.handleDeleteComment(w, r)
		case http.MethodGet:
			commentID, err := uuid.Parse(r.URL.Query().Get("id"))
			if err != nil {
				http.Error(w, "Invalid comment ID format", http.StatusBadRequest)
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetCommentActor(), &actors.GetCommentMsg{CommentID: commentID}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to get comment", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrCommentNotFound)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	viewer := s.viewerProfile(w, userID)
	if viewer == nil {
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		http.Error(w, "Invalid post ID format", http.StatusBadRequest)
		return
	}
	var parentID *uuid.UUID
	if req.ParentID != "" {
		parsed, err := uuid.Parse(req.ParentID)
		if err != nil {
			http.Error(w, "Invalid parent ID format", http.StatusBadRequest)
			return
		}
		parentID = &parsed
	}

	future := s.Context.RequestFuture(s.Engine.GetCommentActor(), &actors.CreateCommentMsg{
		Content:        req.Content,
		AuthorID:       userID,
		AuthorUsername: viewer.Username,
		PostID:         postID,
		ParentID:       parentID,
	}, s.RequestTimeout)

	result, err := future.Result()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create comment: %v", err), http.StatusInternalServerError)
		return
	}
	respondActorResult(w, result, utils.ErrCommentNotFound)
}

func (s *Server) handleEditComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	var req EditCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	commentID, err := uuid.Parse(req.CommentID)
	if err != nil {
		http.Error(w, "Invalid comment ID format", http.StatusBadRequest)
		return
	}

	future := s.Context.RequestFuture(s.Engine.GetCommentActor(), &actors.EditCommentMsg{
		CommentID: commentID,
		AuthorID:  userID,
		Content:   req.Content,
	}, s.RequestTimeout)

	result, err := future.Result()
	if err != nil {
		http.Error(w, "Failed to edit comment", http.StatusInternalServerError)
		return
	}
	respondActorResult(w, result, utils.ErrCommentNotFound)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	viewer := s.viewerProfile(w, userID)
	if viewer == nil {
		return
	}

	commentID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "Invalid comment ID format", http.StatusBadRequest)
		return
	}

	// Fetch the comment for the ownership check before deleting.
	getFuture := s.Context.RequestFuture(s.Engine.GetCommentActor(), &actors.GetCommentMsg{CommentID: commentID}, s.RequestTimeout)
	getResult, err := getFuture.Result()
	if err != nil {
		http.Error(w, "Failed to get comment", http.StatusInternalServerError)
		return
	}
	comment, ok := getResult.(*models.Comment)
	if !ok {
		appErr := utils.NewAppError(utils.ErrCommentNotFound, "comment not found", nil)
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}
	if !perms.CanDelete(viewer.Role, userID, comment.AuthorID) {
		appErr := utils.NewAppError(utils.ErrForbidden, "not allowed to delete this comment", nil)
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}

	future := s.Context.RequestFuture(s.Engine.GetCommentActor(), &actors.DeleteCommentMsg{CommentID: commentID}, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		http.Error(w, "Failed to delete comment", http.StatusInternalServerError)
		return
	}
	respondActorResult(w, result, utils.ErrCommentNotFound)
}

// HandlePostComments lists a post's comment tree.
func (s *Server) HandlePostComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		postID, err := uuid.Parse(r.URL.Query().Get("postId"))
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}
		future := s.Context.RequestFuture(s.Engine.GetCommentActor(), &actors.GetCommentsForPostMsg{PostID: postID}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to get comments", http.StatusInternalServerError)
			return
		}
		respondJSON(w, result)
	}
}

// HandleCommentPawvote toggles the viewer's pawvote on a comment.
func (s *Server) HandleCommentPawvote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}

		var req CommentIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		commentID, err := uuid.Parse(req.CommentID)
		if err != nil {
			http.Error(w, "Invalid comment ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetCommentActor(), &actors.PawvoteCommentMsg{
			CommentID: commentID,
			UserID:    userID,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to toggle pawvote", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrCommentNotFound)
	}
}
