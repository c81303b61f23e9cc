package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paw-grove/internal/api"
	"paw-grove/internal/engine"
	"paw-grove/internal/engine/actors"
	"paw-grove/internal/feed"
	"paw-grove/internal/handlers"
	"paw-grove/internal/middleware"
	"paw-grove/internal/models"
	"paw-grove/internal/utils"
	"paw-grove/internal/websocket"
)

func newTestServer(t *testing.T) *handlers.Server {
	t.Helper()

	metrics := utils.NewMetricsCollector()
	taxonomy := models.NewTaxonomy(models.DefaultTaxonomy())
	hub := websocket.NewHub()
	go hub.Run()

	system := actor.NewActorSystem()
	groveEngine := engine.NewEngine(system, metrics, taxonomy, nil, hub)

	return handlers.NewServer(system, system.Root, groveEngine, metrics, nil, hub, taxonomy)
}

// doJSON runs a handler with a JSON body, impersonating userID when it
// is non-nil, and decodes the response into out when out is non-nil.
func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body interface{}, userID *uuid.UUID, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != nil {
		req = req.WithContext(middleware.SetUserIDInContext(req.Context(), *userID))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func registerUser(t *testing.T, server *handlers.Server, username, email string) uuid.UUID {
	t.Helper()

	var user models.User
	w := doJSON(t, server.HandleUserRegistration(), "POST", "/user/register", handlers.RegisterUserRequest{
		Username: username,
		Email:    email,
		Password: "password123",
	}, nil, &user)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEqual(t, uuid.Nil, user.ID)
	return user.ID
}

func TestIntegrationFlow(t *testing.T) {
	server := newTestServer(t)

	// Two members and a moderator.
	aliceID := registerUser(t, server, "alice", "alice@example.com")
	bobID := registerUser(t, server, "bob", "bob@example.com")
	modID := registerUser(t, server, "mod", "mod@example.com")

	future := server.Context.RequestFuture(server.Engine.GetUserActor(), &actors.SetRoleMsg{
		UserID: modID,
		Role:   models.RoleModerator,
	}, server.RequestTimeout)
	_, err := future.Result()
	require.NoError(t, err)

	// Login works and mints a token.
	var login api.LoginResponse
	w := doJSON(t, server.HandleUserLogin(), "POST", "/user/login", handlers.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	}, nil, &login)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)

	// Alice posts in dogs.
	var post models.Post
	w = doJSON(t, server.HandlePost(), "POST", "/post", handlers.CreatePostRequest{
		Title:      "Crate training progress",
		Content:    "Week three and no more whining at night.",
		CategoryID: "dogs",
	}, &aliceID, &post)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", post.AuthorUsername)

	// Bob pawvotes it.
	var voted models.Post
	w = doJSON(t, server.HandlePawvote(), "POST", "/post/pawvote", handlers.PostIDRequest{
		PostID: post.ID.String(),
	}, &bobID, &voted)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, voted.Pawvotes)

	// Members cannot pin; the moderator can.
	w = doJSON(t, server.HandlePin(), "POST", "/post/pin", handlers.PinRequest{
		PostID: post.ID.String(),
		Level:  "global",
	}, &bobID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var pinned models.Post
	w = doJSON(t, server.HandlePin(), "POST", "/post/pin", handlers.PinRequest{
		PostID: post.ID.String(),
		Level:  "global",
	}, &modID, &pinned)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PinGlobal, pinned.PinLevel)

	// A global pin surfaces even when browsing another category.
	var items []feed.Item
	w = doJSON(t, server.HandleFeed(), "GET", "/feed?category=cats", nil, nil, &items)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, items, 1)
	assert.Equal(t, post.ID, items[0].Post.ID)
	assert.True(t, items[0].Pinned)

	// Alice edits her post inside the window; history records the
	// pre-edit state.
	var edited models.Post
	w = doJSON(t, server.HandlePost(), "PUT", "/post", handlers.EditPostRequest{
		PostID:  post.ID.String(),
		Title:   "Crate training, week three",
		Content: "No more whining at night. Progress!",
	}, &aliceID, &edited)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, edited.IsEdited)
	require.Len(t, edited.EditHistory, 1)
	assert.Equal(t, "Crate training progress", edited.EditHistory[0].Title)

	// Bob may not edit Alice's post.
	w = doJSON(t, server.HandlePost(), "PUT", "/post", handlers.EditPostRequest{
		PostID:  post.ID.String(),
		Title:   "hijacked",
		Content: "hijacked",
	}, &bobID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Bob comments; the post's counter follows.
	var comment models.Comment
	w = doJSON(t, server.HandleComment(), "POST", "/comment", handlers.CreateCommentRequest{
		PostID:  post.ID.String(),
		Content: "Which crate size did you go with?",
	}, &bobID, &comment)
	require.Equal(t, http.StatusOK, w.Code)

	// The counter update travels comment actor to post actor, so poll.
	require.Eventually(t, func() bool {
		var refetched models.Post
		w := doJSON(t, server.HandlePost(), "GET", fmt.Sprintf("/post?id=%s", post.ID), nil, nil, &refetched)
		return w.Code == http.StatusOK && refetched.CommentCount == 1
	}, 2*time.Second, 20*time.Millisecond)

	// Bob saves the post and finds it in his saved list.
	w = doJSON(t, server.HandleSave(), "POST", "/post/save", handlers.PostIDRequest{
		PostID: post.ID.String(),
	}, &bobID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var saved []models.Post
	w = doJSON(t, server.HandleSave(), "GET", "/post/save", nil, &bobID, &saved)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, saved, 1)
	assert.Equal(t, post.ID, saved[0].ID)

	// Bob follows Alice and the following feed shows her post. The
	// following filter gives global pins no pass on inclusion, but the
	// post got in on authorship and the global badge is shown in every
	// context.
	w = doJSON(t, server.HandleFollow(), "POST", "/user/follow", handlers.FollowRequest{
		TargetID: aliceID.String(),
	}, &bobID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var followingItems []feed.Item
	w = doJSON(t, server.HandleFeed(), "GET", "/feed?sort=following", nil, &bobID, &followingItems)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, followingItems, 1)
	assert.True(t, followingItems[0].Pinned)

	// Alice cannot delete via moderation powers she lacks, but can
	// delete her own post.
	w = doJSON(t, server.HandlePost(), "DELETE", fmt.Sprintf("/post?id=%s", post.ID), nil, &aliceID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server.HandlePost(), "GET", fmt.Sprintf("/post?id=%s", post.ID), nil, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModerationFlow(t *testing.T) {
	server := newTestServer(t)

	authorID := registerUser(t, server, "poster", "poster@example.com")
	reporterID := registerUser(t, server, "reporter", "reporter@example.com")
	modID := registerUser(t, server, "mod2", "mod2@example.com")

	future := server.Context.RequestFuture(server.Engine.GetUserActor(), &actors.SetRoleMsg{
		UserID: modID,
		Role:   models.RoleModerator,
	}, server.RequestTimeout)
	_, err := future.Result()
	require.NoError(t, err)

	var post models.Post
	w := doJSON(t, server.HandlePost(), "POST", "/post", handlers.CreatePostRequest{
		Title:      "Free kittens, no questions asked",
		Content:    "DM me.",
		CategoryID: "cats",
	}, &authorID, &post)
	require.Equal(t, http.StatusOK, w.Code)

	// The author cannot report their own post.
	w = doJSON(t, server.HandleReport(), "POST", "/moderation/report", handlers.FileReportRequest{
		Target:   "post",
		TargetID: post.ID.String(),
		Reason:   "testing self-report",
	}, &authorID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var report models.Report
	w = doJSON(t, server.HandleReport(), "POST", "/moderation/report", handlers.FileReportRequest{
		Target:   "post",
		TargetID: post.ID.String(),
		Reason:   "suspected mill",
	}, &reporterID, &report)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ReportOpen, report.Status)

	// Only moderators see the queue.
	w = doJSON(t, server.HandleReport(), "GET", "/moderation/report", nil, &reporterID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var queue []models.Report
	w = doJSON(t, server.HandleReport(), "GET", "/moderation/report", nil, &modID, &queue)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, queue, 1)

	// Blocking the author removes the post and resolves the report.
	var resolved models.Report
	w = doJSON(t, server.HandleResolveReport(), "POST", "/moderation/resolve", handlers.ResolveReportRequest{
		ReportID: report.ID.String(),
		Action:   "block_author",
	}, &modID, &resolved)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ReportResolved, resolved.Status)

	// The block cascade is asynchronous.
	require.Eventually(t, func() bool {
		w := doJSON(t, server.HandlePost(), "GET", fmt.Sprintf("/post?id=%s", post.ID), nil, nil, nil)
		return w.Code == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)
}

func TestVerificationGatesListings(t *testing.T) {
	server := newTestServer(t)

	shelterID := registerUser(t, server, "shelter", "shelter@example.com")
	modID := registerUser(t, server, "mod3", "mod3@example.com")

	future := server.Context.RequestFuture(server.Engine.GetUserActor(), &actors.SetRoleMsg{
		UserID: modID,
		Role:   models.RoleAdmin,
	}, server.RequestTimeout)
	_, err := future.Result()
	require.NoError(t, err)

	listing := handlers.CreateListingRequest{
		PetName:     "Biscuit",
		Species:     "dog",
		Breed:       "beagle mix",
		AgeMonths:   18,
		Description: "Gentle with kids.",
	}

	// Unverified accounts cannot list.
	w := doJSON(t, server.HandleListing(), "POST", "/adoption", listing, &shelterID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Verification request, approved by the moderator.
	var request models.VerificationRequest
	w = doJSON(t, server.HandleVerification(), "POST", "/moderation/verification", handlers.VerificationRequestBody{
		Organization: "Paws Rescue",
		Evidence:     "501c3 paperwork",
	}, &shelterID, &request)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server.HandleReviewVerification(), "POST", "/moderation/verification/review", handlers.ReviewRequest{
		ID:      request.ID.String(),
		Approve: true,
	}, &modID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The verified flag is set asynchronously on the user actor.
	require.Eventually(t, func() bool {
		var profile models.User
		w := doJSON(t, server.HandleUserProfile(), "GET", "/user/profile", nil, &shelterID, &profile)
		return w.Code == http.StatusOK && profile.IsVerified
	}, 2*time.Second, 20*time.Millisecond)

	var created models.AdoptionListing
	w = doJSON(t, server.HandleListing(), "POST", "/adoption", listing, &shelterID, &created)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AdoptionAvailable, created.Status)

	var listings []models.AdoptionListing
	w = doJSON(t, server.HandleBrowseListings(), "GET", "/adoption/browse?species=dog", nil, nil, &listings)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, listings, 1)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	server := newTestServer(t)
	authorID := registerUser(t, server, "healther", "healther@example.com")

	var post models.Post
	w := doJSON(t, server.HandlePost(), "POST", "/post", handlers.CreatePostRequest{
		Title:      "Vet visit notes",
		Content:    "Annual checkup went fine.",
		CategoryID: "dogs",
	}, &authorID, &post)
	require.Equal(t, http.StatusOK, w.Code)

	var keeper models.Comment
	w = doJSON(t, server.HandleComment(), "POST", "/comment", handlers.CreateCommentRequest{
		PostID:  post.ID.String(),
		Content: "Good news!",
	}, &authorID, &keeper)
	require.Equal(t, http.StatusOK, w.Code)

	var doomed models.Comment
	w = doJSON(t, server.HandleComment(), "POST", "/comment", handlers.CreateCommentRequest{
		PostID:  post.ID.String(),
		Content: "Deleted later",
	}, &authorID, &doomed)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server.HandleComment(), "DELETE", fmt.Sprintf("/comment?id=%s", doomed.ID), nil, &authorID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Health reports live counts; the soft-deleted placeholder is not one.
	var health map[string]interface{}
	w = doJSON(t, server.HandleHealth(), "GET", "/health", nil, nil, &health)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(1), health["post_count"])
	assert.Equal(t, float64(1), health["comment_count"])

	var metrics map[string]interface{}
	w = doJSON(t, server.HandleMetrics(), "GET", "/metrics", nil, nil, &metrics)
	require.Equal(t, http.StatusOK, w.Code)
	ops, ok := metrics["operations"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, ops, "create_post")
	assert.Contains(t, metrics, "uptime_seconds")

	w = doJSON(t, server.HandleHealth(), "POST", "/health", nil, nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
