package feed

import (
	"strings"

	"paw-grove/internal/models"
)

// Filter reduces the snapshot to posts matching the view context: search
// text, following mode, and category scoping, ANDed together. Global pins
// bypass only the category scoping; they still must pass search and the
// following filter.
func Filter(posts []*models.Post, ctx ViewContext, tax *models.Taxonomy) []*models.Post {
	out := make([]*models.Post, 0, len(posts))
	query := strings.ToLower(strings.TrimSpace(ctx.Query))

	for _, post := range posts {
		if query != "" && !matchesQuery(post, query, tax) {
			continue
		}
		if ctx.Sort == SortFollowing && !ctx.Following[post.AuthorID] {
			continue
		}
		if !inScope(post, ctx) {
			continue
		}
		out = append(out, post)
	}
	return out
}

func matchesQuery(post *models.Post, query string, tax *models.Taxonomy) bool {
	if strings.Contains(strings.ToLower(post.Title), query) ||
		strings.Contains(strings.ToLower(post.Content), query) ||
		strings.Contains(strings.ToLower(post.AuthorUsername), query) {
		return true
	}
	if tax == nil {
		return false
	}
	if strings.Contains(strings.ToLower(tax.CategoryName(post.CategoryID)), query) {
		return true
	}
	if post.SubcategoryID != "" &&
		strings.Contains(strings.ToLower(tax.SubcategoryName(post.SubcategoryID)), query) {
		return true
	}
	return false
}

func inScope(post *models.Post, ctx ViewContext) bool {
	// Global pins are context-independent.
	if post.PinLevel == models.PinGlobal {
		return true
	}
	if ctx.Category.IsAll() {
		return true
	}
	if post.CategoryID != ctx.Category.ID() {
		return false
	}
	if ctx.SubcategoryID != "" {
		return post.SubcategoryID == ctx.SubcategoryID
	}
	return true
}
