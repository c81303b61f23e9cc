package feed

import "paw-grove/internal/models"

// Item pairs a composed post with its context-dependent badge flag, ready
// for rendering.
type Item struct {
	Post   *models.Post `json:"post"`
	Pinned bool         `json:"pinned"` // show the pinned badge in this view
}

// Items wraps a composed feed with per-post badge flags for the given
// context.
func Items(posts []*models.Post, ctx ViewContext) []Item {
	items := make([]Item, len(posts))
	for i, p := range posts {
		items[i] = Item{Post: p, Pinned: ShowPinnedBadge(p, ctx)}
	}
	return items
}
