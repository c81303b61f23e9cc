package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"paw-grove/internal/engine/actors"
	"paw-grove/internal/feed"
	"paw-grove/internal/middleware"
	"paw-grove/internal/models"
	"paw-grove/internal/perms"
	"paw-grove/internal/utils"
)

// CreatePostRequest represents a request to create a new post
type CreatePostRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	CategoryID    string `json:"categoryId"`
	SubcategoryID string `json:"subcategoryId,omitempty"`
	Poll          *struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
		ClosesAt string   `json:"closesAt,omitempty"` // RFC 3339
	} `json:"poll,omitempty"`
}

// EditPostRequest represents a request to edit an existing post
type EditPostRequest struct {
	PostID        string `json:"postId"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	CategoryID    string `json:"categoryId,omitempty"`
	SubcategoryID string `json:"subcategoryId,omitempty"`
}

// PinRequest represents a request to pin or unpin a post
type PinRequest struct {
	PostID string `json:"postId"`
	Level  string `json:"level,omitempty"` // global, category, subcategory
}

// ReactionRequest toggles one emoji reaction on a post
type ReactionRequest struct {
	PostID string `json:"postId"`
	Emoji  string `json:"emoji"`
}

// PostIDRequest is the shared body for single-post toggles
type PostIDRequest struct {
	PostID string `json:"postId"`
}

// PollVoteRequest represents a vote on a post's embedded poll
type PollVoteRequest struct {
	PostID   string `json:"postId"`
	OptionID string `json:"optionId"`
}

// BlockAuthorRequest removes every post by the author
type BlockAuthorRequest struct {
	AuthorID string `json:"authorId"`
}

// HandlePost handles post CRUD requests
func (s *Server) HandlePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.handleCreatePost(w, r)
		case http.MethodGet:
			s.handleGetPost(w, r)
		case http.MethodPut:
			s.handleEditPost(w, r)
		case http.MethodDelete:
			s.handleDeletePost(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	viewer := s.viewerProfile(w, userID)
	if viewer == nil {
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	var poll *models.Poll
	if req.Poll != nil {
		if req.Poll.Question == "" || len(req.Poll.Options) < 2 {
			http.Error(w, "Poll needs a question and at least two options", http.StatusBadRequest)
			return
		}
		poll = &models.Poll{Question: req.Poll.Question}
		for i, text := range req.Poll.Options {
			poll.Options = append(poll.Options, models.PollOption{
				ID:   strconv.Itoa(i + 1),
				Text: text,
			})
		}
		if req.Poll.ClosesAt != "" {
			closesAt, err := time.Parse(time.RFC3339, req.Poll.ClosesAt)
			if err != nil {
				http.Error(w, "Invalid poll close time", http.StatusBadRequest)
				return
			}
			poll.ClosesAt = closesAt
		}
	}

	future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.CreatePostMsg{
		Title:          req.Title,
		Content:        req.Content,
		AuthorID:       userID,
		AuthorUsername: viewer.Username,
		CategoryID:     req.CategoryID,
		SubcategoryID:  req.SubcategoryID,
		Poll:           poll,
	}, s.RequestTimeout)

	result, err := future.Result()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create post: %v", err), http.StatusInternalServerError)
		return
	}
	respondActorResult(w, result, utils.ErrPostNotFound)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	if categoryID := r.URL.Query().Get("categoryId"); categoryID != "" {
		future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.GetCategoryPostsMsg{
			CategoryID: categoryID,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to get posts", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrPostNotFound)
		return
	}

	postID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "Invalid post ID format", http.StatusBadRequest)
		return
	}
	future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.GetPostMsg{PostID: postID}, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		http.Error(w, "Failed to get post", http.StatusInternalServerError)
		return
	}
	respondActorResult(w, result, utils.ErrPostNotFound)
}

func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	viewer := s.viewerProfile(w, userID)
	if viewer == nil {
		return
	}

	var req EditPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		http.Error(w, "Invalid post ID format", http.StatusBadRequest)
		return
	}

	post := s.fetchPost(w, postID)
	if post == nil {
		return
	}
	if !perms.CanEdit(viewer.Role, userID, post.AuthorID) {
		appErr := utils.NewAppError(utils.ErrForbidden, "only the author can edit this post", nil)
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}
	if !perms.CanEditNow(viewer.Role, userID, post, time.Now()) {
		appErr := utils.NewEditLockedError(time.Since(post.CreatedAt).Hours())
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}

	future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.EditPostMsg{
		PostID:        postID,
		EditorID:      userID,
		Title:         req.Title,
		Content:       req.Content,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
	}, s.RequestTimeout)

	result, err := future.Result()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to edit post: %v", err), http.StatusInternalServerError)
		return
	}
	respondActorResult(w, result, utils.ErrPostNotFound)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	viewer := s.viewerProfile(w, userID)
	if viewer == nil {
		return
	}

	postID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "Invalid post ID format", http.StatusBadRequest)
		return
	}

	post := s.fetchPost(w, postID)
	if post == nil {
		return
	}
	if !perms.CanDelete(viewer.Role, userID, post.AuthorID) {
		appErr := utils.NewAppError(utils.ErrForbidden, "not allowed to delete this post", nil)
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}

	future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.DeletePostMsg{PostID: postID}, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to delete post: %v", err), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]interface{}{"deleted": result == true})
}

// fetchPost loads a post for a permission check, writing the error
// response itself when the post is missing.
func (s *Server) fetchPost(w http.ResponseWriter, postID uuid.UUID) *models.Post {
	future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.GetPostMsg{PostID: postID}, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		http.Error(w, "Failed to get post", http.StatusInternalServerError)
		return nil
	}
	post, ok := result.(*models.Post)
	if !ok {
		appErr := utils.NewAppError(utils.ErrPostNotFound, "post not found", nil)
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return nil
	}
	return post
}

// HandleFeed composes a feed page for the requested view. The route is
// public; an authenticated viewer additionally gets their saved flags
// and may use the following sort.
func (s *Server) HandleFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()

		category := feed.AllCategories()
		if categoryID := q.Get("category"); categoryID != "" {
			if _, ok := s.Taxonomy.Category(categoryID); !ok {
				http.Error(w, "Unknown category", http.StatusBadRequest)
				return
			}
			category = feed.OneCategory(categoryID)
		}

		sort := feed.SortMode(q.Get("sort"))
		switch sort {
		case feed.SortHot, feed.SortNew, feed.SortTop, feed.SortFollowing:
		case "":
			sort = feed.SortHot
		default:
			http.Error(w, "Unknown sort mode", http.StatusBadRequest)
			return
		}

		timeframe := feed.Timeframe(q.Get("timeframe"))
		switch timeframe {
		case feed.TimeframeToday, feed.TimeframeWeek, feed.TimeframeMonth, feed.TimeframeAll:
		case "":
			timeframe = feed.TimeframeAll
		default:
			http.Error(w, "Unknown timeframe", http.StatusBadRequest)
			return
		}

		version, _ := strconv.ParseUint(q.Get("version"), 10, 64)
		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		viewCtx := feed.ViewContext{
			Category:      category,
			SubcategoryID: q.Get("subcategory"),
			Sort:          sort,
			Timeframe:     timeframe,
			Query:         q.Get("q"),
			Version:       version,
		}

		viewerID, authed := middleware.GetUserIDFromContext(r.Context())
		if authed {
			viewCtx.ViewerID = viewerID
		}
		if sort == feed.SortFollowing {
			if !authed {
				http.Error(w, "Authentication required for the following feed", http.StatusUnauthorized)
				return
			}
			following, ok := s.fetchFollowing(w, viewerID)
			if !ok {
				return
			}
			viewCtx.Following = following
		}

		future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.GetFeedMsg{
			Context: viewCtx,
			Offset:  offset,
			Limit:   limit,
		}, s.RequestTimeout)

		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to compose feed", http.StatusInternalServerError)
			return
		}
		respondJSON(w, result)
	}
}

func (s *Server) fetchFollowing(w http.ResponseWriter, userID uuid.UUID) (map[uuid.UUID]bool, bool) {
	future := s.Context.RequestFuture(s.Engine.GetUserActor(), &actors.GetFollowingMsg{UserID: userID}, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		http.Error(w, "Failed to load following set", http.StatusInternalServerError)
		return nil, false
	}
	following, ok := result.(map[uuid.UUID]bool)
	if !ok {
		http.Error(w, "Failed to load following set", http.StatusInternalServerError)
		return nil, false
	}
	return following, true
}

// HandlePin sets or clears a post's pin level. Moderator only.
func (s *Server) HandlePin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}
		viewer := s.viewerProfile(w, userID)
		if viewer == nil {
			return
		}
		if !perms.CanPin(viewer.Role) {
			appErr := utils.NewAppError(utils.ErrForbidden, "pinning requires moderator role", nil)
			http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
			return
		}

		var req PinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodPost:
			level := models.PinLevel(req.Level)
			switch level {
			case models.PinGlobal, models.PinCategory, models.PinSubcategory:
			default:
				http.Error(w, "Unknown pin level", http.StatusBadRequest)
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.SetPinMsg{
				PostID: postID,
				Level:  level,
			}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to pin post", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrPostNotFound)

		case http.MethodDelete:
			future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.UnpinMsg{PostID: postID}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to unpin post", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrPostNotFound)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleReaction toggles an emoji reaction for the authenticated user.
func (s *Server) HandleReaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}

		var req ReactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}
		if req.Emoji == "" {
			http.Error(w, "Emoji is required", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.ToggleReactionMsg{
			PostID: postID,
			Emoji:  req.Emoji,
			UserID: userID,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to toggle reaction", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrPostNotFound)
	}
}

// HandlePawvote toggles the viewer's pawvote on a post.
func (s *Server) HandlePawvote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}

		var req PostIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.TogglePawvoteMsg{
			PostID: postID,
			UserID: userID,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to toggle pawvote", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrPostNotFound)
	}
}

// HandleSave toggles the saved flag (POST) or lists the viewer's saved
// posts (GET).
func (s *Server) HandleSave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req PostIDRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			postID, err := uuid.Parse(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}
			future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.ToggleSaveMsg{
				PostID: postID,
				UserID: userID,
			}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to toggle save", http.StatusInternalServerError)
				return
			}
			respondActorResult(w, result, utils.ErrPostNotFound)

		case http.MethodGet:
			future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.GetSavedPostsMsg{UserID: userID}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to get saved posts", http.StatusInternalServerError)
				return
			}
			respondJSON(w, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandlePollVote records the viewer's vote on a post's poll.
func (s *Server) HandlePollVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUserID(w, r)
		if !ok {
			return
		}

		var req PollVoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.VotePollMsg{
			PostID:   postID,
			UserID:   userID,
			OptionID: req.OptionID,
		}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to vote on poll", http.StatusInternalServerError)
			return
		}
		respondActorResult(w, result, utils.ErrPostNotFound)
	}
}

// HandleBlockAuthor removes every post by an author. Moderator only;
// the account ban itself goes through the moderation actor.
func (s *Server) HandleBlockAuthor() http.HandlerFunc {
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
		if !perms.CanBlock(viewer.Role) {
			appErr := utils.NewAppError(utils.ErrForbidden, "blocking requires moderator role", nil)
			http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
			return
		}

		var req BlockAuthorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		authorID, err := uuid.Parse(req.AuthorID)
		if err != nil {
			http.Error(w, "Invalid author ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetPostActor(), &actors.BlockAuthorMsg{AuthorID: authorID}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to block author", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]interface{}{"removed": result})
	}
}
