// Package perms holds the pure authorization rules consumed by the HTTP
// layer. Everything here is a boolean function of viewer role, viewer id,
// and content metadata; no I/O and no state.
package perms

import (
	"time"

	"github.com/google/uuid"

	"paw-grove/internal/models"
)

// editWindow is how long a member may edit their own post.
const editWindow = 2 * time.Hour

// Popularity limits past which member edits are locked.
const (
	editMaxPawvotes = 50
	editMaxComments = 20
)

func isStaff(role models.Role) bool {
	return role == models.RoleAdmin || role == models.RoleModerator
}

// CanEdit reports whether the viewer may edit the post at all. Whether the
// edit is still within the member window is a separate check, see
// CanEditNow.
func CanEdit(role models.Role, viewerID, authorID uuid.UUID) bool {
	return isStaff(role) || viewerID == authorID
}

// CanDelete reports whether the viewer may delete the post.
func CanDelete(role models.Role, viewerID, authorID uuid.UUID) bool {
	return isStaff(role) || viewerID == authorID
}

// CanPin reports whether the viewer may pin or unpin posts.
func CanPin(role models.Role) bool {
	return isStaff(role)
}

// CanReport reports whether the viewer may file a report. Anyone can
// report content that is not their own.
func CanReport(viewerID, authorID uuid.UUID) bool {
	return viewerID != authorID
}

// CanBlock reports whether the viewer may block an author, cascading the
// removal of their posts.
func CanBlock(role models.Role) bool {
	return isStaff(role)
}

// CanModerate reports whether the viewer may work the report, appeal, and
// verification queues.
func CanModerate(role models.Role) bool {
	return isStaff(role)
}

// CanEditNow applies the member edit-eligibility gate: outside the edit
// window, or on a post that got popular, only staff may edit.
func CanEditNow(role models.Role, viewerID uuid.UUID, post *models.Post, now time.Time) bool {
	if !CanEdit(role, viewerID, post.AuthorID) {
		return false
	}
	if isStaff(role) {
		return true
	}
	if now.Sub(post.CreatedAt) > editWindow {
		return false
	}
	if post.Pawvotes > editMaxPawvotes || post.CommentCount > editMaxComments {
		return false
	}
	return true
}
