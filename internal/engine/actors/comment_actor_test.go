package actors

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paw-grove/internal/models"
	"paw-grove/internal/utils"
)

func TestCommentActor(t *testing.T) {
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewCommentActor(nil)
	})
	pid := system.Root.Spawn(props)

	authorID := uuid.New()
	postID := uuid.New()

	createMsg := &CreateCommentMsg{
		Content:        "Test comment",
		AuthorID:       authorID,
		AuthorUsername: "commenter",
		PostID:         postID,
	}

	future := system.Root.RequestFuture(pid, createMsg, 5*time.Second)
	result, err := future.Result()
	assert.NoError(t, err)

	comment := result.(*models.Comment)
	assert.Equal(t, "Test comment", comment.Content)
	assert.Equal(t, authorID, comment.AuthorID)

	// Editing by the author
	editMsg := &EditCommentMsg{
		CommentID: comment.ID,
		AuthorID:  authorID,
		Content:   "Updated comment",
	}

	future = system.Root.RequestFuture(pid, editMsg, 5*time.Second)
	result, err = future.Result()
	assert.NoError(t, err)

	updatedComment := result.(*models.Comment)
	assert.Equal(t, "Updated comment", updatedComment.Content)

	// Editing by someone else is rejected
	future = system.Root.RequestFuture(pid, &EditCommentMsg{
		CommentID: comment.ID,
		AuthorID:  uuid.New(),
		Content:   "Hijacked",
	}, 5*time.Second)
	result, err = future.Result()
	assert.NoError(t, err)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// Nested comments
	replyMsg := &CreateCommentMsg{
		Content:        "Reply comment",
		AuthorID:       authorID,
		AuthorUsername: "commenter",
		PostID:         postID,
		ParentID:       &comment.ID,
	}

	future = system.Root.RequestFuture(pid, replyMsg, 5*time.Second)
	result, err = future.Result()
	assert.NoError(t, err)

	reply := result.(*models.Comment)
	assert.Equal(t, comment.ID, *reply.ParentID)

	// Getting comments for a post
	future = system.Root.RequestFuture(pid, &GetCommentsForPostMsg{PostID: postID}, 5*time.Second)
	result, err = future.Result()
	assert.NoError(t, err)

	comments := result.([]*models.Comment)
	assert.Equal(t, 2, len(comments))
}

func TestCommentActorPawvoteToggle(t *testing.T) {
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewCommentActor(nil)
	}))

	future := system.Root.RequestFuture(pid, &CreateCommentMsg{
		Content:  "Vote on me",
		AuthorID: uuid.New(),
		PostID:   uuid.New(),
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	comment := result.(*models.Comment)

	voterID := uuid.New()
	vote := func() *models.Comment {
		future := system.Root.RequestFuture(pid, &PawvoteCommentMsg{
			CommentID: comment.ID,
			UserID:    voterID,
		}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)
		return result.(*models.Comment)
	}

	assert.Equal(t, 1, vote().Pawvotes)
	assert.Equal(t, 0, vote().Pawvotes)
}

func TestCommentActorSoftDelete(t *testing.T) {
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewCommentActor(nil)
	}))

	postID := uuid.New()
	future := system.Root.RequestFuture(pid, &CreateCommentMsg{
		Content:  "Parent",
		AuthorID: uuid.New(),
		PostID:   postID,
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	parent := result.(*models.Comment)

	future = system.Root.RequestFuture(pid, &CreateCommentMsg{
		Content:  "Child",
		AuthorID: uuid.New(),
		PostID:   postID,
		ParentID: &parent.ID,
	}, 5*time.Second)
	_, err = future.Result()
	require.NoError(t, err)

	future = system.Root.RequestFuture(pid, &DeleteCommentMsg{CommentID: parent.ID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.True(t, result.(bool))

	// The placeholder stays so the child remains reachable
	future = system.Root.RequestFuture(pid, &GetCommentMsg{CommentID: parent.ID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	deleted := result.(*models.Comment)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, "[deleted]", deleted.Content)
	require.Len(t, deleted.Children, 1)

	future = system.Root.RequestFuture(pid, &GetCommentsForPostMsg{PostID: postID}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.Len(t, result.([]*models.Comment), 2)
}

func TestCommentActorCountExcludesDeleted(t *testing.T) {
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewCommentActor(nil)
	}))

	postA := uuid.New()
	postB := uuid.New()
	var doomed *models.Comment
	for i, postID := range []uuid.UUID{postA, postA, postB} {
		future := system.Root.RequestFuture(pid, &CreateCommentMsg{
			Content:  "Comment",
			AuthorID: uuid.New(),
			PostID:   postID,
		}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)
		if i == 0 {
			doomed = result.(*models.Comment)
		}
	}

	future := system.Root.RequestFuture(pid, &DeleteCommentMsg{CommentID: doomed.ID}, 5*time.Second)
	_, err := future.Result()
	require.NoError(t, err)

	// The soft-deleted placeholder no longer counts.
	future = system.Root.RequestFuture(pid, &GetCommentCountMsg{PostID: postA}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, result.(int))

	// The zero PostID counts across all posts.
	future = system.Root.RequestFuture(pid, &GetCommentCountMsg{}, 5*time.Second)
	result, err = future.Result()
	require.NoError(t, err)
	assert.Equal(t, 2, result.(int))
}
