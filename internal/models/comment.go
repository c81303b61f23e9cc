package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment represents a comment on a post or a reply to another comment.
type Comment struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	Content        string      `json:"content" db:"content"`
	AuthorID       uuid.UUID   `json:"authorId" db:"author_id"`
	AuthorUsername string      `json:"authorUsername" db:"author_username"`
	PostID         uuid.UUID   `json:"postId" db:"post_id"`
	ParentID       *uuid.UUID  `json:"parentId,omitempty" db:"parent_id"` // nil for top-level comments
	Children       []uuid.UUID `json:"children"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
	IsDeleted      bool        `json:"isDeleted"` // soft delete keeps children reachable
	Pawvotes       int         `json:"pawvotes" db:"pawvotes"`
}
