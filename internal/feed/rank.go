package feed

import (
	"sort"
	"time"

	"paw-grove/internal/models"
)

// hotWindow is how long a post counts as "recent" for hot ranking.
const hotWindow = 14 * 24 * time.Hour

// Rank orders the regular tier for the given sort mode. Deterministic for
// a fixed now; all sorts are stable so ties keep source order.
func Rank(posts []*models.Post, mode SortMode, timeframe Timeframe, now time.Time) []*models.Post {
	ranked := make([]*models.Post, len(posts))
	copy(ranked, posts)

	switch mode {
	case SortHot:
		rankHot(ranked, now)
	case SortTop:
		rankTop(ranked, timeframe, now)
	default:
		// new and following both degenerate to recency; following-mode
		// author restriction already happened in the filter stage.
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
		})
	}
	return ranked
}

// rankHot puts recent posts (inside the hot window) ahead of stale ones.
// Recent posts sort by engagement-per-hour; stale posts by plain recency.
func rankHot(posts []*models.Post, now time.Time) {
	sort.SliceStable(posts, func(i, j int) bool {
		ri, rj := isRecent(posts[i], now), isRecent(posts[j], now)
		if ri != rj {
			return ri
		}
		if ri {
			return hotScore(posts[i], now) > hotScore(posts[j], now)
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func isRecent(post *models.Post, now time.Time) bool {
	return now.Sub(post.CreatedAt) <= hotWindow
}

func hotScore(post *models.Post, now time.Time) float64 {
	hours := now.Sub(post.CreatedAt).Hours()
	if hours < 1 {
		hours = 1
	}
	return float64(post.Pawvotes+post.CommentCount*2) / hours
}

// rankTop puts posts inside the timeframe first, by pawvotes, then the
// rest by recency.
func rankTop(posts []*models.Post, timeframe Timeframe, now time.Time) {
	cutoff := now.Add(-timeframeWindow(timeframe))
	sort.SliceStable(posts, func(i, j int) bool {
		wi := !posts[i].CreatedAt.Before(cutoff)
		wj := !posts[j].CreatedAt.Before(cutoff)
		if wi != wj {
			return wi
		}
		if wi {
			return posts[i].Pawvotes > posts[j].Pawvotes
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func timeframeWindow(timeframe Timeframe) time.Duration {
	switch timeframe {
	case TimeframeToday:
		return 24 * time.Hour
	case TimeframeWeek:
		return 7 * 24 * time.Hour
	case TimeframeMonth:
		return 30 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}
