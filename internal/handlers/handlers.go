package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"paw-grove/internal/database"
	"paw-grove/internal/engine"
	"paw-grove/internal/engine/actors"
	"paw-grove/internal/middleware"
	"paw-grove/internal/models"
	"paw-grove/internal/utils"
	"paw-grove/internal/websocket"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	Store          database.DBAdapter
	Hub            *websocket.Hub
	Taxonomy       *models.Taxonomy
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	context *actor.RootContext,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	store database.DBAdapter,
	hub *websocket.Hub,
	taxonomy *models.Taxonomy,
) *Server {
	return &Server{
		System:         system,
		Context:        context,
		Engine:         eng,
		Metrics:        metrics,
		Store:          store,
		Hub:            hub,
		Taxonomy:       taxonomy,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// respondJSON writes the value as a JSON response.
func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// respondActorResult maps the common actor reply shapes: an AppError
// becomes its HTTP status, nil means the target was never there, and
// anything else is the payload.
func respondActorResult(w http.ResponseWriter, result interface{}, notFoundCode string) {
	if appErr, ok := result.(*utils.AppError); ok {
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}
	if result == nil {
		appErr := utils.NewAppError(notFoundCode, "not found", nil)
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(notFoundCode))
		return
	}
	respondJSON(w, result)
}

// authedUserID pulls the authenticated user out of the request context.
func authedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// viewerProfile fetches the authenticated user's account for permission
// checks. Responds with an error and returns nil when the lookup fails.
func (s *Server) viewerProfile(w http.ResponseWriter, userID uuid.UUID) *models.User {
	future := s.Context.RequestFuture(s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: userID}, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		http.Error(w, "Failed to load user profile", http.StatusInternalServerError)
		return nil
	}
	user, ok := result.(*models.User)
	if !ok {
		http.Error(w, "User not found", http.StatusUnauthorized)
		return nil
	}
	return user
}

// HandleHealth handles health check requests
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.GetCountsMsg{}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to get post count", http.StatusInternalServerError)
			return
		}
		postCount := result.(int)

		future = s.Context.RequestFuture(s.Engine.GetCommentActor(), &actors.GetCommentCountMsg{}, s.RequestTimeout)
		result, err = future.Result()
		if err != nil {
			http.Error(w, "Failed to get comment count", http.StatusInternalServerError)
			return
		}
		commentCount := result.(int)

		respondJSON(w, map[string]interface{}{
			"status":        "healthy",
			"post_count":    postCount,
			"comment_count": commentCount,
			"server_time":   time.Now(),
		})
	}
}

// HandleMetrics exposes the per-operation latency snapshot.
func (s *Server) HandleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ops, uptime := s.Metrics.Snapshot()
		respondJSON(w, map[string]interface{}{
			"operations":     ops,
			"uptime_seconds": uptime.Seconds(),
		})
	}
}
