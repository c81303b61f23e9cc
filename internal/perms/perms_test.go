package perms

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"paw-grove/internal/models"
)

func TestOwnershipRules(t *testing.T) {
	author := uuid.New()
	stranger := uuid.New()

	assert.True(t, CanEdit(models.RoleMember, author, author))
	assert.False(t, CanEdit(models.RoleMember, stranger, author))
	assert.True(t, CanEdit(models.RoleModerator, stranger, author))

	assert.True(t, CanDelete(models.RoleAdmin, stranger, author))
	assert.False(t, CanDelete(models.RoleMember, stranger, author))

	assert.False(t, CanPin(models.RoleMember))
	assert.True(t, CanPin(models.RoleModerator))

	assert.True(t, CanReport(stranger, author))
	assert.False(t, CanReport(author, author))

	assert.False(t, CanBlock(models.RoleMember))
	assert.True(t, CanBlock(models.RoleAdmin))
}

func TestEditEligibilityGate(t *testing.T) {
	now := time.Now()
	author := uuid.New()
	post := &models.Post{AuthorID: author, CreatedAt: now.Add(-30 * time.Minute)}

	assert.True(t, CanEditNow(models.RoleMember, author, post, now))

	// Past the 2 hour window.
	post.CreatedAt = now.Add(-3 * time.Hour)
	assert.False(t, CanEditNow(models.RoleMember, author, post, now))
	assert.True(t, CanEditNow(models.RoleModerator, author, post, now))

	// Too popular, even inside the window.
	post.CreatedAt = now.Add(-10 * time.Minute)
	post.Pawvotes = 51
	assert.False(t, CanEditNow(models.RoleMember, author, post, now))

	post.Pawvotes = 0
	post.CommentCount = 21
	assert.False(t, CanEditNow(models.RoleMember, author, post, now))

	post.CommentCount = 20
	assert.True(t, CanEditNow(models.RoleMember, author, post, now))
}
