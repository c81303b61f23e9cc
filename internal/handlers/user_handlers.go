package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"paw-grove/internal/api"
	"paw-grove/internal/engine/actors"
	"paw-grove/internal/models"
	"paw-grove/internal/utils"
)

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest represents a profile update
type UpdateProfileRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// FollowRequest targets another user for follow/unfollow
type FollowRequest struct {
	TargetID string `json:"targetId"`
}

// SetRoleRequest changes another user's role. Admin only.
type SetRoleRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// HandleUserRegistration handles requests to register a new user
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Role:     models.RoleMember,
		}, s.RequestTimeout)

		result, err := future.Result()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to register user: %v", err), http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrUserNotFound)
	}
}

// HandleUserLogin handles requests to log in a user
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		log.Printf("HTTP Handler: Received login request for email: %s", req.Email)

		future := s.Context.RequestFuture(s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		}, s.RequestTimeout)

		result, err := future.Result()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to log in: %v", err), http.StatusInternalServerError)
			return
		}

		resp, ok := result.(*api.LoginResponse)
		if !ok {
			http.Error(w, "Unexpected login response", http.StatusInternalServerError)
			return
		}
		if !resp.Success {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(resp)
			return
		}
		respondJSON(w, resp)
	}
}

// HandleUserProfile serves GET (own or by id) and PUT (own) profile
// requests.
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			targetID := userID
			if idParam := r.URL.Query().Get("id"); idParam != "" {
				parsed, err := uuid.Parse(idParam)
				if err != nil {
					http.Error(w, "Invalid user ID format", http.StatusBadRequest)
					return
				}
				targetID = parsed
			}
			future := s.Context.RequestFuture(s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: targetID}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to get profile", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrUserNotFound)

		case http.MethodPut:
			var req UpdateProfileRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetUserActor(), &actors.UpdateProfileMsg{
				UserID:      userID,
				NewUsername: req.Username,
				NewEmail:    req.Email,
			}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to update profile", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrUserNotFound)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleFollow follows (POST) or unfollows (DELETE) another user.
func (s *Server) HandleFollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}

		var req FollowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		targetID, err := uuid.Parse(req.TargetID)
		if err != nil {
			http.Error(w, "Invalid target ID format", http.StatusBadRequest)
			return
		}
		if targetID == userID {
			http.Error(w, "Cannot follow yourself", http.StatusBadRequest)
			return
		}

		var msg interface{}
		switch r.Method {
		case http.MethodPost:
			msg = &actors.FollowUserMsg{FollowerID: userID, TargetID: targetID}
		case http.MethodDelete:
			msg = &actors.UnfollowUserMsg{FollowerID: userID, TargetID: targetID}
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetUserActor(), msg, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to update following", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrUserNotFound)
	}
}

// HandleSetRole changes a user's role. Admin only.
func (s *Server) HandleSetRole() http.HandlerFunc {
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
		if viewer.Role != models.RoleAdmin {
			appErr := utils.NewAppError(utils.ErrForbidden, "role changes require admin", nil)
			http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
			return
		}

		var req SetRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		targetID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "Invalid user ID format", http.StatusBadRequest)
			return
		}
		role := models.Role(req.Role)
		switch role {
		case models.RoleMember, models.RoleModerator, models.RoleAdmin:
		default:
			http.Error(w, "Unknown role", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetUserActor(), &actors.SetRoleMsg{
			UserID: targetID,
			Role:   role,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to set role", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrUserNotFound)
	}
}
