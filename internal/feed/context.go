// Package feed implements the feed composition pipeline: a pure function
// chain that filters a post snapshot by view context, partitions it into
// pin tiers, ranks the regular tier, and concatenates the tiers in
// view-dependent order. Nothing in this package mutates posts or touches
// the network; callers hand it a snapshot and a context and render the
// result.
package feed

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// SortMode selects the ranking rule for the regular tier.
type SortMode string

const (
	SortHot       SortMode = "hot"
	SortNew       SortMode = "new"
	SortTop       SortMode = "top"
	SortFollowing SortMode = "following"
)

// Timeframe bounds the "top" sort window.
type Timeframe string

const (
	TimeframeToday Timeframe = "today"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeAll   Timeframe = "all"
)

// CategorySelection is either the home view (all categories) or one
// specific category. Using a closed type here keeps the "all" sentinel
// out of the filter and classifier logic.
type CategorySelection struct {
	id  string
	all bool
}

// AllCategories selects the home view.
func AllCategories() CategorySelection {
	return CategorySelection{all: true}
}

// OneCategory selects a single category by ID.
func OneCategory(id string) CategorySelection {
	return CategorySelection{id: id}
}

// IsAll reports whether the selection is the home view.
func (c CategorySelection) IsAll() bool { return c.all }

// ID returns the selected category ID; empty for the home view.
func (c CategorySelection) ID() string { return c.id }

// ViewContext is the ephemeral per-view input to the pipeline. It is
// rebuilt whenever the user changes navigation context and never
// persisted.
type ViewContext struct {
	Category      CategorySelection
	SubcategoryID string // empty unless browsing a subcategory
	Sort          SortMode
	Timeframe     Timeframe
	Query         string

	ViewerID  uuid.UUID
	Following map[uuid.UUID]bool

	// Version is bumped by the caller on every navigation change. It
	// seeds the pinned-tier shuffle so pin order is stable while the
	// user stays on one view and reshuffles only when the view changes.
	Version uint64
}

// shuffleSeed derives a deterministic seed from the context so that the
// same view always shuffles its pinned tiers the same way.
func (ctx ViewContext) shuffleSeed() int64 {
	h := fnv.New64a()
	h.Write([]byte(ctx.Category.id))
	h.Write([]byte(ctx.SubcategoryID))
	var v [8]byte
	for i := 0; i < 8; i++ {
		v[i] = byte(ctx.Version >> (8 * i))
	}
	h.Write(v[:])
	return int64(h.Sum64())
}

// AtSubcategory reports whether the view is at subcategory granularity.
func (ctx ViewContext) AtSubcategory() bool {
	return !ctx.Category.IsAll() && ctx.SubcategoryID != ""
}

// AtCategory reports whether the view is at category granularity with no
// subcategory selected.
func (ctx ViewContext) AtCategory() bool {
	return !ctx.Category.IsAll() && ctx.SubcategoryID == ""
}
