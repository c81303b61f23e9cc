package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// feedItem mirrors the wire shape of a composed feed entry, trimmed to
// the fields the simulator acts on.
type feedItem struct {
	Post struct {
		ID       string `json:"id"`
		AuthorID string `json:"authorId"`
		Poll     *struct {
			Options []struct {
				ID string `json:"id"`
			} `json:"options"`
			ClosesAt time.Time `json:"closesAt"`
		} `json:"poll"`
	} `json:"post"`
	Pinned bool `json:"pinned"`
}

var reactionEmojis = []string{"🐾", "❤️", "😂", "😮", "😢"}

var sortModes = []string{"hot", "new", "top", "following"}

func (s *Simulator) SimulateActivities(ctx context.Context) error {
	log.Printf("Starting activities simulation...")

	// Comments and votes wait until the posters have seeded some content.
	postsAvailable := make(chan struct{})
	var signalOnce sync.Once
	signalPosts := func() { signalOnce.Do(func() { close(postsAvailable) }) }

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulatePosts(ctx, signalPosts)
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.stats.mu.RLock()
				if s.stats.TotalPosts >= 10 {
					s.stats.mu.RUnlock()
					signalPosts()
					return
				}
				s.stats.mu.RUnlock()
			}
		}
	}()

	engagementLoops := []struct {
		name string
		run  func(context.Context)
	}{
		{"comments", s.simulateComments},
		{"pawvotes", s.simulatePawvotes},
		{"reactions", s.simulateReactions},
		{"saves", s.simulateSaves},
		{"browsing", s.simulateBrowsing},
	}

	for _, loop := range engagementLoops {
		wg.Add(1)
		go func(name string, run func(context.Context)) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case <-postsAvailable:
				log.Printf("Starting %s after posts available...", name)
				run(ctx)
			}
		}(loop.name, loop.run)
	}

	wg.Wait()
	return nil
}

func (s *Simulator) simulatePosts(ctx context.Context, signalPosts func()) {
	log.Printf("Starting post simulation...")

	tickInterval := 500 * time.Millisecond
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	const numWorkers = 5
	postJobs := make(chan *SimulatedUser, s.config.NumUsers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for user := range postJobs {
				if !user.IsConnected || len(user.Favorites) == 0 {
					continue
				}

				if rand.Float64() < (s.config.PostFrequency/3600.0)/2.0 {
					categoryID := user.Favorites[rand.Intn(len(user.Favorites))]
					subcategoryID := s.randomSubcategory(categoryID)

					postData := map[string]interface{}{
						"title":      fmt.Sprintf("Post by %s at %d", user.Username, time.Now().Unix()),
						"content":    fmt.Sprintf("Content from %s: %s", user.Username, time.Now().Format(time.RFC3339)),
						"categoryId": categoryID,
					}
					if subcategoryID != "" && rand.Float64() < 0.5 {
						postData["subcategoryId"] = subcategoryID
					}

					withPoll := rand.Float64() < s.config.PollPercentage
					if withPoll {
						postData["poll"] = map[string]interface{}{
							"question": fmt.Sprintf("What does your pet prefer, asked by %s?", user.Username),
							"options":  []string{"Wet food", "Dry food", "Treats only"},
							"closesAt": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
						}
					}

					resp, err := s.makeRequest(user.Token, "POST", "/post", postData)
					if err != nil {
						log.Printf("Debug: Error creating post: %v", err)
						continue
					}

					var created struct {
						ID string `json:"id"`
					}
					if err := json.Unmarshal(resp, &created); err == nil {
						if postID, err := uuid.Parse(created.ID); err == nil {
							s.mu.Lock()
							user.Posts = append(user.Posts, postID)
							s.mu.Unlock()
						}
					}

					s.stats.mu.Lock()
					s.stats.TotalPosts++
					if withPoll {
						s.stats.PollCount++
					}
					postCount := s.stats.TotalPosts
					s.stats.mu.Unlock()

					log.Printf("Created post by user %s (Total: %d) in category %s",
						user.Username, postCount, categoryID)

					if postCount >= 10 {
						signalPosts()
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(postJobs)
			wg.Wait()
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, user := range s.users {
				if user.IsConnected {
					select {
					case postJobs <- user:
					default: // Don't block if channel is full
					}
				}
			}
			s.mu.RUnlock()
		}
	}
}

func (s *Simulator) simulateComments(ctx context.Context) {
	s.runEngagementLoop(ctx, "comment", s.config.CommentFrequency, func(user *SimulatedUser) {
		item, err := s.getRandomFeedItem(user)
		if err != nil {
			return
		}

		data := map[string]interface{}{
			"postId":  item.Post.ID,
			"content": fmt.Sprintf("Comment from %s at %s", user.Username, time.Now().Format(time.RFC3339)),
		}

		if _, err := s.makeRequest(user.Token, "POST", "/comment", data); err != nil {
			log.Printf("Debug: Failed to create comment: %v", err)
			return
		}

		s.stats.mu.Lock()
		s.stats.TotalComments++
		commentCount := s.stats.TotalComments
		s.stats.mu.Unlock()
		log.Printf("Created comment by user %s (Total: %d)", user.Username, commentCount)
	})
}

func (s *Simulator) simulatePawvotes(ctx context.Context) {
	s.runEngagementLoop(ctx, "pawvote", s.config.PawvoteFrequency, func(user *SimulatedUser) {
		item, err := s.getRandomFeedItem(user)
		if err != nil {
			return
		}
		postID, err := uuid.Parse(item.Post.ID)
		if err != nil {
			return
		}

		s.mu.RLock()
		already := user.PawvotedPosts[postID]
		s.mu.RUnlock()
		if already {
			return
		}

		data := map[string]interface{}{"postId": item.Post.ID}
		if _, err := s.makeRequest(user.Token, "POST", "/post/pawvote", data); err != nil {
			return
		}

		s.mu.Lock()
		user.PawvotedPosts[postID] = true
		s.mu.Unlock()

		s.stats.mu.Lock()
		s.stats.TotalPawvotes++
		s.stats.mu.Unlock()

		// Some pawvoters also weigh in on the post's poll.
		if item.Post.Poll != nil && len(item.Post.Poll.Options) > 0 && rand.Float64() < 0.5 {
			option := item.Post.Poll.Options[rand.Intn(len(item.Post.Poll.Options))]
			pollData := map[string]interface{}{
				"postId":   item.Post.ID,
				"optionId": option.ID,
			}
			s.makeRequest(user.Token, "POST", "/post/poll", pollData) // Ignore error as this is just simulation
		}
	})
}

func (s *Simulator) simulateReactions(ctx context.Context) {
	s.runEngagementLoop(ctx, "reaction", s.config.ReactionFrequency, func(user *SimulatedUser) {
		item, err := s.getRandomFeedItem(user)
		if err != nil {
			return
		}
		postID, err := uuid.Parse(item.Post.ID)
		if err != nil {
			return
		}

		s.mu.RLock()
		already := user.ReactedPosts[postID]
		s.mu.RUnlock()
		if already {
			return
		}

		data := map[string]interface{}{
			"postId": item.Post.ID,
			"emoji":  reactionEmojis[rand.Intn(len(reactionEmojis))],
		}
		if _, err := s.makeRequest(user.Token, "POST", "/post/reaction", data); err != nil {
			return
		}

		s.mu.Lock()
		user.ReactedPosts[postID] = true
		s.mu.Unlock()

		s.stats.mu.Lock()
		s.stats.TotalReactions++
		s.stats.mu.Unlock()
	})
}

func (s *Simulator) simulateSaves(ctx context.Context) {
	s.runEngagementLoop(ctx, "save", s.config.SaveFrequency, func(user *SimulatedUser) {
		item, err := s.getRandomFeedItem(user)
		if err != nil {
			return
		}
		postID, err := uuid.Parse(item.Post.ID)
		if err != nil {
			return
		}

		s.mu.RLock()
		already := user.SavedPosts[postID]
		s.mu.RUnlock()
		if already {
			return
		}

		data := map[string]interface{}{"postId": item.Post.ID}
		if _, err := s.makeRequest(user.Token, "POST", "/post/save", data); err != nil {
			return
		}

		s.mu.Lock()
		user.SavedPosts[postID] = true
		s.mu.Unlock()

		s.stats.mu.Lock()
		s.stats.TotalSaves++
		s.stats.mu.Unlock()
	})
}

// simulateBrowsing hits the feed the way an idle reader would, cycling
// sort modes and occasionally pulling to refresh (which bumps the view
// version and reshuffles the pinned tier).
func (s *Simulator) simulateBrowsing(ctx context.Context) {
	s.runEngagementLoop(ctx, "browse", s.config.BrowseFrequency, func(user *SimulatedUser) {
		sort := sortModes[rand.Intn(len(sortModes))]

		endpoint := fmt.Sprintf("/feed?sort=%s&version=%d", sort, user.FeedVersion)
		if len(user.Favorites) > 0 && rand.Float64() < 0.7 {
			endpoint += "&category=" + user.Favorites[rand.Intn(len(user.Favorites))]
		}
		if rand.Float64() < 0.3 {
			endpoint += fmt.Sprintf("&offset=%d", rand.Intn(3)*20)
		}

		if _, err := s.makeRequest(user.Token, "GET", endpoint, nil); err != nil {
			return
		}

		if rand.Float64() < 0.1 {
			s.mu.Lock()
			user.FeedVersion++
			s.mu.Unlock()
		}

		s.stats.mu.Lock()
		s.stats.TotalFeedLoads++
		s.stats.mu.Unlock()
	})
}

// runEngagementLoop is the shared worker-pool skeleton for the per-user
// activity loops. frequency is actions per user per hour.
func (s *Simulator) runEngagementLoop(ctx context.Context, name string, frequency float64, action func(*SimulatedUser)) {
	log.Printf("Starting %s simulation...", name)

	tickInterval := 500 * time.Millisecond
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	const numWorkers = 5
	jobs := make(chan *SimulatedUser, s.config.NumUsers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				if !user.IsConnected {
					continue
				}
				if rand.Float64() < (frequency/3600.0)/2.0 {
					action(user)
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, user := range s.users {
				if user.IsConnected {
					select {
					case jobs <- user:
					default: // Don't block if channel is full
					}
				}
			}
			s.mu.RUnlock()
		}
	}
}

// Helper functions

func (s *Simulator) randomSubcategory(categoryID string) string {
	for _, c := range s.categories {
		if c.ID != categoryID {
			continue
		}
		if len(c.Subcategories) == 0 {
			return ""
		}
		return c.Subcategories[rand.Intn(len(c.Subcategories))].ID
	}
	return ""
}

// getRandomFeedItem browses one of the user's favorite categories and
// picks a post to act on.
func (s *Simulator) getRandomFeedItem(user *SimulatedUser) (*feedItem, error) {
	if len(user.Favorites) == 0 {
		return nil, fmt.Errorf("no favorite categories")
	}

	shuffled := make([]string, len(user.Favorites))
	copy(shuffled, user.Favorites)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for _, categoryID := range shuffled {
		endpoint := fmt.Sprintf("/feed?category=%s&sort=new&version=%d", categoryID, user.FeedVersion)
		resp, err := s.makeRequest(user.Token, "GET", endpoint, nil)
		if err != nil {
			log.Printf("Debug: Error fetching feed: %v", err)
			continue
		}

		s.stats.mu.Lock()
		s.stats.TotalFeedLoads++
		s.stats.mu.Unlock()

		var items []feedItem
		if err := json.Unmarshal(resp, &items); err != nil {
			log.Printf("Debug: Error parsing feed: %v", err)
			continue
		}
		if len(items) == 0 {
			continue
		}

		selected := items[rand.Intn(len(items))]
		// Skip our own posts some of the time so engagement spreads out.
		if selected.Post.AuthorID == user.ID.String() && len(items) > 1 {
			selected = items[rand.Intn(len(items))]
		}
		return &selected, nil
	}

	return nil, fmt.Errorf("no posts found in any favorite category")
}
