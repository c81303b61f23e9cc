package feed

import (
	"math/rand"

	"paw-grove/internal/models"
)

// Tiers is the result of pin classification. Every filtered post lands in
// exactly one tier.
type Tiers struct {
	Globals         []*models.Post
	SubcategoryPins []*models.Post
	CategoryPins    []*models.Post
	Regular         []*models.Post
}

// Classify partitions filtered posts into pin tiers. Precedence per post:
// global, then subcategory pin in its home subcategory, then category pin
// in its home category, then regular. A pin viewed outside its home
// context falls through to the regular tier and is ranked like any other
// post.
//
// The three pinned tiers are shuffled with a PRNG seeded from the view
// context, so no single pinned post monopolizes the top slot forever, yet
// the order stays put until the user navigates somewhere else.
func Classify(posts []*models.Post, ctx ViewContext) Tiers {
	var t Tiers
	for _, post := range posts {
		switch {
		case post.PinLevel == models.PinGlobal:
			t.Globals = append(t.Globals, post)
		case post.PinLevel == models.PinSubcategory &&
			ctx.SubcategoryID != "" && post.SubcategoryID == ctx.SubcategoryID:
			t.SubcategoryPins = append(t.SubcategoryPins, post)
		case post.PinLevel == models.PinCategory &&
			!ctx.Category.IsAll() && post.CategoryID == ctx.Category.ID():
			t.CategoryPins = append(t.CategoryPins, post)
		default:
			t.Regular = append(t.Regular, post)
		}
	}

	rng := rand.New(rand.NewSource(ctx.shuffleSeed()))
	shuffle(rng, t.Globals)
	shuffle(rng, t.SubcategoryPins)
	shuffle(rng, t.CategoryPins)
	return t
}

func shuffle(rng *rand.Rand, posts []*models.Post) {
	rng.Shuffle(len(posts), func(i, j int) {
		posts[i], posts[j] = posts[j], posts[i]
	})
}

// ShowPinnedBadge reports whether the UI should render a pinned badge for
// this post in the given context. It re-derives the classifier's matching
// rules: global pins badge everywhere, category and subcategory pins only
// inside their home context.
func ShowPinnedBadge(post *models.Post, ctx ViewContext) bool {
	switch post.PinLevel {
	case models.PinGlobal:
		return true
	case models.PinSubcategory:
		return ctx.SubcategoryID != "" && post.SubcategoryID == ctx.SubcategoryID
	case models.PinCategory:
		return !ctx.Category.IsAll() && post.CategoryID == ctx.Category.ID()
	default:
		return false
	}
}
