package actors

import (
	stdctx "context"
	"log"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"paw-grove/internal/database"
	"paw-grove/internal/feed"
	"paw-grove/internal/models"
	"paw-grove/internal/utils"
)

// Message types for Post operations
type (
	CreatePostMsg struct {
		Title          string
		Content        string
		AuthorID       uuid.UUID
		AuthorUsername string
		CategoryID     string
		SubcategoryID  string
		Poll           *models.Poll
	}

	GetPostMsg struct {
		PostID uuid.UUID
	}

	GetCategoryPostsMsg struct {
		CategoryID string
	}

	// GetFeedMsg runs the composition pipeline over the current snapshot.
	GetFeedMsg struct {
		Context feed.ViewContext
		Offset  int
		Limit   int
	}

	EditPostMsg struct {
		PostID        uuid.UUID
		EditorID      uuid.UUID
		Title         string
		Content       string
		CategoryID    string // empty: keep current
		SubcategoryID string // empty: keep current
	}

	DeletePostMsg struct {
		PostID uuid.UUID
	}

	SetPinMsg struct {
		PostID uuid.UUID
		Level  models.PinLevel
	}

	UnpinMsg struct {
		PostID uuid.UUID
	}

	ToggleReactionMsg struct {
		PostID uuid.UUID
		Emoji  string
		UserID uuid.UUID
	}

	TogglePawvoteMsg struct {
		PostID uuid.UUID
		UserID uuid.UUID
	}

	ToggleSaveMsg struct {
		PostID uuid.UUID
		UserID uuid.UUID
	}

	// BlockAuthorMsg cascades: every post by the author leaves the store.
	BlockAuthorMsg struct {
		AuthorID uuid.UUID
	}

	VotePollMsg struct {
		PostID   uuid.UUID
		UserID   uuid.UUID
		OptionID string
	}

	// AdjustCommentCountMsg keeps the informational counter in step with
	// the comment actor.
	AdjustCommentCountMsg struct {
		PostID uuid.UUID
		Delta  int
	}

	GetSavedPostsMsg struct {
		UserID uuid.UUID
	}

	GetCountsMsg struct{}
)

// PostActor is the single source of truth for the post collection within
// a session. Lookups go through the ID index; the category index only
// serves the category listing query.
type PostActor struct {
	postsByID       map[uuid.UUID]*models.Post
	postsByCategory map[string][]uuid.UUID
	order           []uuid.UUID // insertion order, the tie-break for stable ranking
	taxonomy        *models.Taxonomy
	metrics         *utils.MetricsCollector
	store           database.DBAdapter
}

// NewPostActor creates a new PostActor instance. store may be nil for a
// purely in-memory engine (tests, simulator).
func NewPostActor(metrics *utils.MetricsCollector, taxonomy *models.Taxonomy, store database.DBAdapter) actor.Actor {
	return &PostActor{
		postsByID:       make(map[uuid.UUID]*models.Post),
		postsByCategory: make(map[string][]uuid.UUID),
		taxonomy:        taxonomy,
		metrics:         metrics,
		store:           store,
	}
}

func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("PostActor started")
		a.warmStart()
	case *actor.Stopping:
		log.Printf("PostActor stopping")

	case *CreatePostMsg:
		a.handleCreatePost(context, msg)
	case *GetPostMsg:
		a.handleGetPost(context, msg)
	case *GetCategoryPostsMsg:
		a.handleGetCategoryPosts(context, msg)
	case *GetFeedMsg:
		a.handleGetFeed(context, msg)
	case *EditPostMsg:
		a.handleEditPost(context, msg)
	case *DeletePostMsg:
		a.handleDeletePost(context, msg)
	case *SetPinMsg:
		a.handleSetPin(context, msg)
	case *UnpinMsg:
		a.handleUnpin(context, msg)
	case *ToggleReactionMsg:
		a.handleToggleReaction(context, msg)
	case *TogglePawvoteMsg:
		a.handleTogglePawvote(context, msg)
	case *ToggleSaveMsg:
		a.handleToggleSave(context, msg)
	case *BlockAuthorMsg:
		a.handleBlockAuthor(context, msg)
	case *VotePollMsg:
		a.handleVotePoll(context, msg)
	case *AdjustCommentCountMsg:
		a.handleAdjustCommentCount(msg)
	case *GetSavedPostsMsg:
		a.handleGetSavedPosts(context, msg)
	case *GetCountsMsg:
		context.Respond(len(a.postsByID))
	default:
		log.Printf("PostActor: Unknown message type: %T", msg)
	}
}

func (a *PostActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()

	if msg.Title == "" || msg.Content == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "title and content are required", nil))
		return
	}
	if _, ok := a.taxonomy.Category(msg.CategoryID); !ok {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "unknown category: "+msg.CategoryID, nil))
		return
	}
	if msg.SubcategoryID != "" {
		sub, ok := a.taxonomy.Subcategory(msg.SubcategoryID)
		if !ok || sub.CategoryID != msg.CategoryID {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "subcategory does not belong to category", nil))
			return
		}
	}

	newPost := &models.Post{
		ID:             uuid.New(),
		Title:          msg.Title,
		Content:        msg.Content,
		AuthorID:       msg.AuthorID,
		AuthorUsername: msg.AuthorUsername,
		CategoryID:     msg.CategoryID,
		SubcategoryID:  msg.SubcategoryID,
		CreatedAt:      time.Now(),
		Pawvoters:      make(map[uuid.UUID]bool),
		SavedBy:        make(map[uuid.UUID]bool),
		Poll:           msg.Poll,
	}

	a.postsByID[newPost.ID] = newPost
	a.postsByCategory[msg.CategoryID] = append(a.postsByCategory[msg.CategoryID], newPost.ID)
	a.order = append(a.order, newPost.ID)

	a.persist(newPost)
	a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	context.Respond(newPost)
}

func (a *PostActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	if post, exists := a.postsByID[msg.PostID]; exists {
		context.Respond(post)
	} else {
		context.Respond(utils.NewAppError(utils.ErrPostNotFound, "post not found", nil))
	}
}

func (a *PostActor) handleGetCategoryPosts(context actor.Context, msg *GetCategoryPostsMsg) {
	postIDs := a.postsByCategory[msg.CategoryID]
	posts := make([]*models.Post, 0, len(postIDs))
	for _, postID := range postIDs {
		if post := a.postsByID[postID]; post != nil {
			posts = append(posts, post)
		}
	}
	context.Respond(posts)
}

func (a *PostActor) handleGetFeed(context actor.Context, msg *GetFeedMsg) {
	startTime := time.Now()

	snapshot := make([]*models.Post, 0, len(a.postsByID))
	for _, id := range a.order {
		if post := a.postsByID[id]; post != nil {
			snapshot = append(snapshot, post)
		}
	}

	composed := feed.Build(snapshot, msg.Context, a.taxonomy, time.Now())
	page := feed.Page(composed, msg.Offset, msg.Limit)

	a.metrics.AddOperationLatency("get_feed", time.Since(startTime))
	context.Respond(feed.Items(page, msg.Context))
}

func (a *PostActor) handleEditPost(context actor.Context, msg *EditPostMsg) {
	startTime := time.Now()

	post, exists := a.postsByID[msg.PostID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrPostNotFound, "post not found", nil))
		return
	}
	if msg.Title == "" || msg.Content == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "title and content are required", nil))
		return
	}

	// Snapshot the pre-edit state; the history is append-only.
	post.EditHistory = append(post.EditHistory, models.EditRecord{
		Title:    post.Title,
		Content:  post.Content,
		EditedAt: time.Now(),
		EditedBy: msg.EditorID,
	})
	post.Title = msg.Title
	post.Content = msg.Content
	post.IsEdited = true

	if msg.CategoryID != "" && msg.CategoryID != post.CategoryID {
		if _, ok := a.taxonomy.Category(msg.CategoryID); ok {
			a.removeFromCategoryIndex(post)
			post.CategoryID = msg.CategoryID
			post.SubcategoryID = ""
			a.postsByCategory[post.CategoryID] = append(a.postsByCategory[post.CategoryID], post.ID)
		}
	}
	if msg.SubcategoryID != "" {
		if sub, ok := a.taxonomy.Subcategory(msg.SubcategoryID); ok && sub.CategoryID == post.CategoryID {
			post.SubcategoryID = msg.SubcategoryID
		}
	}

	a.persist(post)
	a.metrics.AddOperationLatency("edit_post", time.Since(startTime))
	context.Respond(post)
}

func (a *PostActor) handleDeletePost(context actor.Context, msg *DeletePostMsg) {
	post, exists := a.postsByID[msg.PostID]
	if !exists {
		context.Respond(false)
		return
	}
	a.removeFromCategoryIndex(post)
	a.removeFromOrder(post.ID)
	delete(a.postsByID, msg.PostID)

	a.unpersist(post.ID)
	context.Respond(true)
}

func (a *PostActor) handleSetPin(context actor.Context, msg *SetPinMsg) {
	post, exists := a.postsByID[msg.PostID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrPostNotFound, "post not found", nil))
		return
	}
	switch msg.Level {
	case models.PinGlobal, models.PinCategory, models.PinSubcategory:
		post.PinLevel = msg.Level
	default:
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "invalid pin level", nil))
		return
	}
	a.persist(post)
	context.Respond(post)
}

func (a *PostActor) handleUnpin(context actor.Context, msg *UnpinMsg) {
	post, exists := a.postsByID[msg.PostID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrPostNotFound, "post not found", nil))
		return
	}
	post.PinLevel = models.PinNone
	a.persist(post)
	context.Respond(post)
}

// handleToggleReaction flips the viewer's reaction. Counts never go
// negative and zero-count entries are pruned from the collection.
func (a *PostActor) handleToggleReaction(context actor.Context, msg *ToggleReactionMsg) {
	startTime := time.Now()

	post, exists := a.postsByID[msg.PostID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrPostNotFound, "post not found", nil))
		return
	}

	found := -1
	for i := range post.Reactions {
		if post.Reactions[i].Emoji == msg.Emoji {
			found = i
			break
		}
	}

	if found < 0 {
		post.Reactions = append(post.Reactions, models.Reaction{
			Emoji:    msg.Emoji,
			Count:    1,
			Reactors: map[uuid.UUID]bool{msg.UserID: true},
		})
	} else {
		r := &post.Reactions[found]
		if r.Reactors[msg.UserID] {
			delete(r.Reactors, msg.UserID)
			r.Count--
			if r.Count <= 0 {
				post.Reactions = append(post.Reactions[:found], post.Reactions[found+1:]...)
			}
		} else {
			if r.Reactors == nil {
				r.Reactors = make(map[uuid.UUID]bool)
			}
			r.Reactors[msg.UserID] = true
			r.Count++
		}
	}

	a.persist(post)
	a.metrics.AddOperationLatency("toggle_reaction", time.Since(startTime))
	context.Respond(post)
}

func (a *PostActor) handleTogglePawvote(context actor.Context, msg *TogglePawvoteMsg) {
	post, exists := a.postsByID[msg.PostID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrPostNotFound, "post not found", nil))
		return
	}
	if post.Pawvoters == nil {
		post.Pawvoters = make(map[uuid.UUID]bool)
	}
	if post.Pawvoters[msg.UserID] {
		delete(post.Pawvoters, msg.UserID)
		if post.Pawvotes > 0 {
			post.Pawvotes--
		}
	} else {
		post.Pawvoters[msg.UserID] = true
		post.Pawvotes++
	}
	a.persist(post)
	context.Respond(post)
}

func (a *PostActor) handleToggleSave(context actor.Context, msg *ToggleSaveMsg) {
	post, exists := a.postsByID[msg.PostID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrPostNotFound, "post not found", nil))
		return
	}
	if post.SavedBy == nil {
		post.SavedBy = make(map[uuid.UUID]bool)
	}
	if post.SavedBy[msg.UserID] {
		delete(post.SavedBy, msg.UserID)
	} else {
		post.SavedBy[msg.UserID] = true
	}
	a.persist(post)
	context.Respond(post)
}

func (a *PostActor) handleBlockAuthor(context actor.Context, msg *BlockAuthorMsg) {
	startTime := time.Now()

	removed := 0
	for id, post := range a.postsByID {
		if post.AuthorID == msg.AuthorID {
			a.removeFromCategoryIndex(post)
			a.removeFromOrder(id)
			delete(a.postsByID, id)
			removed++
		}
	}
	a.unpersistByAuthor(msg.AuthorID)

	log.Printf("PostActor: Blocked author %s, removed %d posts", msg.AuthorID, removed)
	a.metrics.AddOperationLatency("block_author", time.Since(startTime))
	context.Respond(removed)
}

func (a *PostActor) handleVotePoll(context actor.Context, msg *VotePollMsg) {
	post, exists := a.postsByID[msg.PostID]
	if !exists || post.Poll == nil {
		context.Respond(utils.NewAppError(utils.ErrPostNotFound, "post or poll not found", nil))
		return
	}
	if !post.Poll.Vote(msg.UserID, msg.OptionID) {
		context.Respond(utils.NewAppError(utils.ErrPollClosed, "poll is closed or option unknown", nil))
		return
	}
	a.persist(post)
	context.Respond(post)
}

func (a *PostActor) handleAdjustCommentCount(msg *AdjustCommentCountMsg) {
	if post, exists := a.postsByID[msg.PostID]; exists {
		post.CommentCount += msg.Delta
		if post.CommentCount < 0 {
			post.CommentCount = 0
		}
	}
}

func (a *PostActor) handleGetSavedPosts(context actor.Context, msg *GetSavedPostsMsg) {
	saved := make([]*models.Post, 0)
	for _, post := range a.postsByID {
		if post.SavedBy[msg.UserID] {
			saved = append(saved, post)
		}
	}
	context.Respond(saved)
}

// warmStart reloads persisted posts so feeds survive a restart. Loads
// come back in creation order, which seeds the insertion-order slice.
func (a *PostActor) warmStart() {
	if a.store == nil {
		return
	}
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 30*time.Second)
	defer cancel()

	posts, err := a.store.GetAllPosts(ctx)
	if err != nil {
		log.Printf("PostActor: failed to load persisted posts: %v", err)
		return
	}
	for _, post := range posts {
		if _, exists := a.postsByID[post.ID]; exists {
			continue
		}
		a.postsByID[post.ID] = post
		a.postsByCategory[post.CategoryID] = append(a.postsByCategory[post.CategoryID], post.ID)
		a.order = append(a.order, post.ID)
	}
	if len(posts) > 0 {
		log.Printf("PostActor: loaded %d persisted posts", len(posts))
	}
}

func (a *PostActor) removeFromOrder(id uuid.UUID) {
	for i, existing := range a.order {
		if existing == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

func (a *PostActor) removeFromCategoryIndex(post *models.Post) {
	ids := a.postsByCategory[post.CategoryID]
	for i, id := range ids {
		if id == post.ID {
			a.postsByCategory[post.CategoryID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// persist writes the post to the backend in the background; the
// in-memory store stays authoritative for the session. The clone is taken
// on the actor goroutine so the store never shares maps with live posts.
func (a *PostActor) persist(post *models.Post) {
	if a.store == nil {
		return
	}
	snapshot := post.Clone()
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
		defer cancel()
		if err := a.store.SavePost(ctx, snapshot); err != nil {
			log.Printf("PostActor: failed to persist post %s: %v", snapshot.ID, err)
		}
	}()
}

// unpersistByAuthor removes every persisted post by the author in one
// backend call, matching the in-memory cascade.
func (a *PostActor) unpersistByAuthor(authorID uuid.UUID) {
	if a.store == nil {
		return
	}
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
		defer cancel()
		if n, err := a.store.DeletePostsByAuthor(ctx, authorID); err != nil {
			log.Printf("PostActor: failed to delete posts by author %s: %v", authorID, err)
		} else if n > 0 {
			log.Printf("PostActor: deleted %d persisted posts by author %s", n, authorID)
		}
	}()
}

func (a *PostActor) unpersist(id uuid.UUID) {
	if a.store == nil {
		return
	}
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), 5*time.Second)
		defer cancel()
		if err := a.store.DeletePost(ctx, id); err != nil {
			log.Printf("PostActor: failed to delete post %s: %v", id, err)
		}
	}()
}
