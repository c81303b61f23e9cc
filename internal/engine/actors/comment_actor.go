package actors

import (
	"log"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"paw-grove/internal/models"
	"paw-grove/internal/utils"
)

// Message types for CommentActor
type (
	CreateCommentMsg struct {
		Content        string     `json:"content"`
		AuthorID       uuid.UUID  `json:"authorId"`
		AuthorUsername string     `json:"authorUsername"`
		PostID         uuid.UUID  `json:"postId"`
		ParentID       *uuid.UUID `json:"parentId,omitempty"`
	}

	EditCommentMsg struct {
		CommentID uuid.UUID `json:"commentId"`
		AuthorID  uuid.UUID `json:"authorId"`
		Content   string    `json:"content"`
	}

	// DeleteCommentMsg soft-deletes: the comment stays as a placeholder
	// so replies under it remain reachable.
	DeleteCommentMsg struct {
		CommentID uuid.UUID `json:"commentId"`
	}

	GetCommentMsg struct {
		CommentID uuid.UUID `json:"commentId"`
	}

	GetCommentsForPostMsg struct {
		PostID uuid.UUID `json:"postId"`
	}

	PawvoteCommentMsg struct {
		CommentID uuid.UUID `json:"commentId"`
		UserID    uuid.UUID `json:"userId"`
	}

	// GetCommentCountMsg counts live comments, excluding soft-deleted
	// placeholders. The zero PostID counts across all posts.
	GetCommentCountMsg struct {
		PostID uuid.UUID `json:"postId"`
	}
)

// CommentActor manages the nested comment trees. Top-level comments hang
// off their post; replies hang off their parent's Children list.
type CommentActor struct {
	comments      map[uuid.UUID]*models.Comment
	postComments  map[uuid.UUID][]uuid.UUID
	commentVoters map[uuid.UUID]map[uuid.UUID]bool
	postActor     *actor.PID // receives comment-count adjustments
}

func NewCommentActor(postActor *actor.PID) actor.Actor {
	return &CommentActor{
		comments:      make(map[uuid.UUID]*models.Comment),
		postComments:  make(map[uuid.UUID][]uuid.UUID),
		commentVoters: make(map[uuid.UUID]map[uuid.UUID]bool),
		postActor:     postActor,
	}
}

func (a *CommentActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("CommentActor started with PID: %v", context.Self())

	case *CreateCommentMsg:
		a.handleCreateComment(context, msg)
	case *EditCommentMsg:
		a.handleEditComment(context, msg)
	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)
	case *GetCommentMsg:
		a.handleGetComment(context, msg)
	case *GetCommentsForPostMsg:
		a.handleGetPostComments(context, msg)
	case *PawvoteCommentMsg:
		a.handlePawvoteComment(context, msg)
	case *GetCommentCountMsg:
		context.Respond(a.countLiveComments(msg.PostID))

	default:
		log.Printf("CommentActor: Unknown message type %T", msg)
	}
}

func (a *CommentActor) handleCreateComment(context actor.Context, msg *CreateCommentMsg) {
	if msg.Content == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "comment content is required", nil))
		return
	}

	if msg.ParentID != nil {
		parent, exists := a.comments[*msg.ParentID]
		if !exists {
			context.Respond(utils.NewAppError(utils.ErrCommentNotFound, "parent comment not found", nil))
			return
		}
		if parent.PostID != msg.PostID {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "parent comment belongs to another post", nil))
			return
		}
	}

	now := time.Now()
	comment := &models.Comment{
		ID:             uuid.New(),
		Content:        msg.Content,
		AuthorID:       msg.AuthorID,
		AuthorUsername: msg.AuthorUsername,
		PostID:         msg.PostID,
		ParentID:       msg.ParentID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	a.comments[comment.ID] = comment
	a.postComments[msg.PostID] = append(a.postComments[msg.PostID], comment.ID)
	if msg.ParentID != nil {
		parent := a.comments[*msg.ParentID]
		parent.Children = append(parent.Children, comment.ID)
	}

	if a.postActor != nil {
		context.Send(a.postActor, &AdjustCommentCountMsg{PostID: msg.PostID, Delta: 1})
	}
	context.Respond(comment)
}

func (a *CommentActor) handleEditComment(context actor.Context, msg *EditCommentMsg) {
	comment, exists := a.comments[msg.CommentID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrCommentNotFound, "comment not found", nil))
		return
	}
	if comment.AuthorID != msg.AuthorID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "only the author can edit a comment", nil))
		return
	}
	if msg.Content == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "comment content is required", nil))
		return
	}

	comment.Content = msg.Content
	comment.UpdatedAt = time.Now()
	context.Respond(comment)
}

func (a *CommentActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	comment, exists := a.comments[msg.CommentID]
	if !exists {
		context.Respond(false)
		return
	}
	if comment.IsDeleted {
		context.Respond(true)
		return
	}

	comment.IsDeleted = true
	comment.Content = "[deleted]"

	if a.postActor != nil {
		context.Send(a.postActor, &AdjustCommentCountMsg{PostID: comment.PostID, Delta: -1})
	}
	context.Respond(true)
}

func (a *CommentActor) handleGetComment(context actor.Context, msg *GetCommentMsg) {
	if comment, exists := a.comments[msg.CommentID]; exists {
		context.Respond(comment)
	} else {
		context.Respond(utils.NewAppError(utils.ErrCommentNotFound, "comment not found", nil))
	}
}

// handleGetPostComments returns every comment on the post in creation
// order; the client rebuilds the tree from ParentID/Children.
func (a *CommentActor) handleGetPostComments(context actor.Context, msg *GetCommentsForPostMsg) {
	ids := a.postComments[msg.PostID]
	comments := make([]*models.Comment, 0, len(ids))
	for _, id := range ids {
		if comment := a.comments[id]; comment != nil {
			comments = append(comments, comment)
		}
	}
	context.Respond(comments)
}

func (a *CommentActor) countLiveComments(postID uuid.UUID) int {
	count := 0
	if postID == uuid.Nil {
		for _, comment := range a.comments {
			if !comment.IsDeleted {
				count++
			}
		}
		return count
	}
	for _, id := range a.postComments[postID] {
		if comment := a.comments[id]; comment != nil && !comment.IsDeleted {
			count++
		}
	}
	return count
}

func (a *CommentActor) handlePawvoteComment(context actor.Context, msg *PawvoteCommentMsg) {
	comment, exists := a.comments[msg.CommentID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrCommentNotFound, "comment not found", nil))
		return
	}

	voters := a.commentVoters[msg.CommentID]
	if voters == nil {
		voters = make(map[uuid.UUID]bool)
		a.commentVoters[msg.CommentID] = voters
	}

	if voters[msg.UserID] {
		delete(voters, msg.UserID)
		if comment.Pawvotes > 0 {
			comment.Pawvotes--
		}
	} else {
		voters[msg.UserID] = true
		comment.Pawvotes++
	}
	context.Respond(comment)
}
