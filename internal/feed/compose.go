package feed

import (
	"time"

	"paw-grove/internal/models"
)

// DefaultPageSize is the initial render count; the UI grows the window by
// the same increment as the user nears the bottom.
const DefaultPageSize = 20

// Compose concatenates the tiers in view-dependent order. More specific
// views stack more pin tiers above the regular content: a subcategory
// view shows its category's pins too, a category view shows only its own
// pins, and the home view shows just global pins.
func Compose(t Tiers, ctx ViewContext) []*models.Post {
	out := make([]*models.Post, 0,
		len(t.Globals)+len(t.SubcategoryPins)+len(t.CategoryPins)+len(t.Regular))

	out = append(out, t.Globals...)
	if ctx.AtSubcategory() {
		out = append(out, t.SubcategoryPins...)
		out = append(out, t.CategoryPins...)
	} else if ctx.AtCategory() {
		out = append(out, t.CategoryPins...)
	}
	return append(out, t.Regular...)
}

// Page returns the window [offset, offset+limit) of the composed feed,
// clamped to the available posts. A non-positive limit falls back to
// DefaultPageSize.
func Page(posts []*models.Post, offset, limit int) []*models.Post {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(posts) {
		return nil
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end]
}

// Build runs the full pipeline over a snapshot: filter, classify, rank,
// compose. It never mutates the input slice or the posts.
func Build(posts []*models.Post, ctx ViewContext, tax *models.Taxonomy, now time.Time) []*models.Post {
	filtered := Filter(posts, ctx, tax)
	tiers := Classify(filtered, ctx)
	tiers.Regular = Rank(tiers.Regular, ctx.Sort, ctx.Timeframe, now)
	return Compose(tiers, ctx)
}
