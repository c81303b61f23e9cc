package actors

import (
	"fmt"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paw-grove/internal/feed"
	"paw-grove/internal/models"
	"paw-grove/internal/utils"
)

func spawnPostActor(t *testing.T) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	taxonomy := models.NewTaxonomy(models.DefaultTaxonomy())
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPostActor(utils.NewMetricsCollector(), taxonomy, nil)
	})
	return system, system.Root.Spawn(props)
}

func createTestPost(t *testing.T, system *actor.ActorSystem, pid *actor.PID, authorID uuid.UUID, categoryID, title string) *models.Post {
	t.Helper()
	future := system.Root.RequestFuture(pid, &CreatePostMsg{
		Title:          title,
		Content:        "Content of " + title,
		AuthorID:       authorID,
		AuthorUsername: "tester",
		CategoryID:     categoryID,
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	post, ok := result.(*models.Post)
	require.True(t, ok, "expected *models.Post, got %T", result)
	return post
}

func TestPostActorCreateAndGet(t *testing.T) {
	system, pid := spawnPostActor(t)
	authorID := uuid.New()

	post := createTestPost(t, system, pid, authorID, "dogs", "First walk")
	assert.Equal(t, "First walk", post.Title)
	assert.Equal(t, authorID, post.AuthorID)
	assert.Equal(t, "dogs", post.CategoryID)
	assert.Equal(t, models.PinNone, post.PinLevel)

	future := system.Root.RequestFuture(pid, &GetPostMsg{PostID: post.ID}, 5*time.Second)
	result, err := future.Result()
	assert.NoError(t, err)
	fetched := result.(*models.Post)
	assert.Equal(t, post.ID, fetched.ID)

	// Unknown category is rejected
	future = system.Root.RequestFuture(pid, &CreatePostMsg{
		Title:      "Nope",
		Content:    "Nope",
		AuthorID:   authorID,
		CategoryID: "dinosaurs",
	}, 5*time.Second)
	result, err = future.Result()
	assert.NoError(t, err)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	// Subcategory must belong to the category
	future = system.Root.RequestFuture(pid, &CreatePostMsg{
		Title:         "Nope",
		Content:       "Nope",
		AuthorID:      authorID,
		CategoryID:    "dogs",
		SubcategoryID: "cat-behavior",
	}, 5*time.Second)
	result, err = future.Result()
	assert.NoError(t, err)
	_, ok = result.(*utils.AppError)
	assert.True(t, ok)
}

func TestPostActorPawvoteToggle(t *testing.T) {
	system, pid := spawnPostActor(t)
	post := createTestPost(t, system, pid, uuid.New(), "cats", "Toy review")
	voterID := uuid.New()

	// First toggle adds the pawvote
	future := system.Root.RequestFuture(pid, &TogglePawvoteMsg{PostID: post.ID, UserID: voterID}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	updated := result.(*models.Post)
	assert.Equal(t, 1, updated.Pawvotes)
	assert.True(t, updated.Pawvoters[voterID])

	// Second toggle removes it again
	future = system.Root.RequestFuture(pid, &TogglePawvoteMsg{PostID: post.ID, UserID: voterID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	updated = result.(*models.Post)
	assert.Equal(t, 0, updated.Pawvotes)
	assert.False(t, updated.Pawvoters[voterID])

	// Unknown post
	future = system.Root.RequestFuture(pid, &TogglePawvoteMsg{PostID: uuid.New(), UserID: voterID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrPostNotFound, appErr.Code)
}

func TestPostActorReactionPruning(t *testing.T) {
	system, pid := spawnPostActor(t)
	post := createTestPost(t, system, pid, uuid.New(), "birds", "Parakeet songs")
	alice := uuid.New()
	bob := uuid.New()

	react := func(userID uuid.UUID, emoji string) *models.Post {
		future := system.Root.RequestFuture(pid, &ToggleReactionMsg{
			PostID: post.ID,
			Emoji:  emoji,
			UserID: userID,
		}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)
		return result.(*models.Post)
	}

	updated := react(alice, "🐾")
	require.Len(t, updated.Reactions, 1)
	assert.Equal(t, 1, updated.Reactions[0].Count)

	updated = react(bob, "🐾")
	require.Len(t, updated.Reactions, 1)
	assert.Equal(t, 2, updated.Reactions[0].Count)

	updated = react(alice, "❤️")
	require.Len(t, updated.Reactions, 2)

	// Removing the last reactor prunes the entry entirely
	updated = react(alice, "❤️")
	require.Len(t, updated.Reactions, 1)
	assert.Equal(t, "🐾", updated.Reactions[0].Emoji)

	updated = react(alice, "🐾")
	updated = react(bob, "🐾")
	assert.Empty(t, updated.Reactions)
}

func TestPostActorEditHistory(t *testing.T) {
	system, pid := spawnPostActor(t)
	authorID := uuid.New()
	post := createTestPost(t, system, pid, authorID, "dogs", "Original title")

	edit := func(title, content string) *models.Post {
		future := system.Root.RequestFuture(pid, &EditPostMsg{
			PostID:   post.ID,
			EditorID: authorID,
			Title:    title,
			Content:  content,
		}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)
		return result.(*models.Post)
	}

	first := edit("Second title", "Second content")
	assert.True(t, first.IsEdited)
	require.Len(t, first.EditHistory, 1)
	assert.Equal(t, "Original title", first.EditHistory[0].Title)
	assert.Equal(t, authorID, first.EditHistory[0].EditedBy)

	second := edit("Third title", "Third content")
	require.Len(t, second.EditHistory, 2)
	assert.Equal(t, "Original title", second.EditHistory[0].Title)
	assert.Equal(t, "Second title", second.EditHistory[1].Title)
	assert.Equal(t, "Third title", second.Title)
}

func TestPostActorPinLifecycle(t *testing.T) {
	system, pid := spawnPostActor(t)
	post := createTestPost(t, system, pid, uuid.New(), "reptiles", "Heat lamp guide")

	future := system.Root.RequestFuture(pid, &SetPinMsg{PostID: post.ID, Level: models.PinGlobal}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	pinned := result.(*models.Post)
	assert.Equal(t, models.PinGlobal, pinned.PinLevel)

	// Invalid level
	future = system.Root.RequestFuture(pid, &SetPinMsg{PostID: post.ID, Level: models.PinLevel("sideways")}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	_, ok := result.(*utils.AppError)
	assert.True(t, ok)

	future = system.Root.RequestFuture(pid, &UnpinMsg{PostID: post.ID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	unpinned := result.(*models.Post)
	assert.Equal(t, models.PinNone, unpinned.PinLevel)
}

func TestPostActorBlockAuthorCascade(t *testing.T) {
	system, pid := spawnPostActor(t)
	blocked := uuid.New()
	kept := uuid.New()

	createTestPost(t, system, pid, blocked, "dogs", "Spam one")
	createTestPost(t, system, pid, blocked, "cats", "Spam two")
	survivor := createTestPost(t, system, pid, kept, "dogs", "Legit post")

	future := system.Root.RequestFuture(pid, &BlockAuthorMsg{AuthorID: blocked}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	assert.Equal(t, 2, result.(int))

	future = system.Root.RequestFuture(pid, &GetCountsMsg{}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, result.(int))

	future = system.Root.RequestFuture(pid, &GetPostMsg{PostID: survivor.ID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	_, ok := result.(*models.Post)
	assert.True(t, ok)
}

func TestPostActorFeedPinsAndDeterminism(t *testing.T) {
	system, pid := spawnPostActor(t)
	authorID := uuid.New()

	for i := 0; i < 5; i++ {
		createTestPost(t, system, pid, authorID, "cats", fmt.Sprintf("Cat post %d", i))
	}
	dogPost := createTestPost(t, system, pid, authorID, "dogs", "Announcement")

	future := system.Root.RequestFuture(pid, &SetPinMsg{PostID: dogPost.ID, Level: models.PinGlobal}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)

	getFeed := func(ctx feed.ViewContext) []feed.Item {
		future := system.Root.RequestFuture(pid, &GetFeedMsg{Context: ctx}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)
		return result.([]feed.Item)
	}

	// The global pin leads the cats view even though it lives in dogs
	catsView := feed.ViewContext{Category: feed.OneCategory("cats"), Sort: feed.SortNew, Timeframe: feed.TimeframeAll, Version: 7}
	items := getFeed(catsView)
	require.Len(t, items, 6)
	assert.Equal(t, dogPost.ID, items[0].Post.ID)
	assert.True(t, items[0].Pinned)
	assert.False(t, items[1].Pinned)

	// Same version, same order
	again := getFeed(catsView)
	require.Len(t, again, len(items))
	for i := range items {
		assert.Equal(t, items[i].Post.ID, again[i].Post.ID)
	}
}

func TestPostActorPollVoting(t *testing.T) {
	system, pid := spawnPostActor(t)
	voter := uuid.New()

	future := system.Root.RequestFuture(pid, &CreatePostMsg{
		Title:      "Food poll",
		Content:    "Wet or dry?",
		AuthorID:   uuid.New(),
		CategoryID: "cats",
		Poll: &models.Poll{
			Question: "Wet or dry?",
			Options: []models.PollOption{
				{ID: "wet", Text: "Wet"},
				{ID: "dry", Text: "Dry"},
			},
			ClosesAt: time.Now().Add(time.Hour),
		},
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	post := result.(*models.Post)

	vote := func(optionID string) interface{} {
		future := system.Root.RequestFuture(pid, &VotePollMsg{
			PostID:   post.ID,
			UserID:   voter,
			OptionID: optionID,
		}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)
		return result
	}

	voted := vote("wet").(*models.Post)
	assert.Equal(t, 1, voted.Poll.Options[0].Votes)

	// Re-voting moves the vote instead of stacking it
	voted = vote("dry").(*models.Post)
	assert.Equal(t, 0, voted.Poll.Options[0].Votes)
	assert.Equal(t, 1, voted.Poll.Options[1].Votes)

	appErr, ok := vote("raw").(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrPollClosed, appErr.Code)
}

func TestPostActorSavedPosts(t *testing.T) {
	system, pid := spawnPostActor(t)
	saver := uuid.New()

	first := createTestPost(t, system, pid, uuid.New(), "small-pets", "Hamster wheel")
	createTestPost(t, system, pid, uuid.New(), "small-pets", "Gerbil maze")

	future := system.Root.RequestFuture(pid, &ToggleSaveMsg{PostID: first.ID, UserID: saver}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)

	future = system.Root.RequestFuture(pid, &GetSavedPostsMsg{UserID: saver}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	saved := result.([]*models.Post)
	require.Len(t, saved, 1)
	assert.Equal(t, first.ID, saved[0].ID)

	// Toggling again clears the save
	future = system.Root.RequestFuture(pid, &ToggleSaveMsg{PostID: first.ID, UserID: saver}, 5*time.Second)
	_, err = future.Result()
	require.NoError(t, err)

	future = system.Root.RequestFuture(pid, &GetSavedPostsMsg{UserID: saver}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.Empty(t, result.([]*models.Post))
}

func spawnPostActorWithStore(t *testing.T, store *stubStore) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	taxonomy := models.NewTaxonomy(models.DefaultTaxonomy())
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPostActor(utils.NewMetricsCollector(), taxonomy, store)
	})
	return system, system.Root.Spawn(props)
}

func TestPostActorPersistSnapshotIsolation(t *testing.T) {
	store := newStubStore()
	system, pid := spawnPostActorWithStore(t, store)

	post := createTestPost(t, system, pid, uuid.New(), "dogs", "Snapshot check")
	voter := uuid.New()

	future := system.Root.RequestFuture(pid, &TogglePawvoteMsg{PostID: post.ID, UserID: voter}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(store.savedPostSnapshots()) >= 2
	}, 5*time.Second, 10*time.Millisecond)

	// The create-time snapshot must not see the later pawvote. If the
	// actor handed the store its live maps instead of clones, the voter
	// would show up in both.
	for _, snap := range store.savedPostSnapshots() {
		if snap.Pawvotes == 0 {
			assert.Empty(t, snap.Pawvoters)
		} else {
			assert.True(t, snap.Pawvoters[voter])
		}
	}
}

func TestPostActorBlockAuthorClearsStore(t *testing.T) {
	store := newStubStore()
	system, pid := spawnPostActorWithStore(t, store)
	blocked := uuid.New()

	createTestPost(t, system, pid, blocked, "dogs", "Spam one")
	createTestPost(t, system, pid, blocked, "cats", "Spam two")

	future := system.Root.RequestFuture(pid, &BlockAuthorMsg{AuthorID: blocked}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	assert.Equal(t, 2, result.(int))

	// The cascade issues a single author-wide delete against the store.
	require.Eventually(t, func() bool {
		return len(store.authorDeletes()) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, blocked, store.authorDeletes()[0])
}
