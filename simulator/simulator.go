package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"paw-grove/internal/models"
)

type SimConfig struct {
	NumUsers          int
	SimulationTime    time.Duration
	PostFrequency     float64 // posts per user per hour
	CommentFrequency  float64
	PawvoteFrequency  float64
	ReactionFrequency float64
	SaveFrequency     float64
	BrowseFrequency   float64
	PollPercentage    float64 // fraction of posts carrying a poll
	DisconnectRate    float64
	ReconnectRate     float64
	ZipfS             float64
	EngineURL         string
}

type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	AverageLatency   time.Duration
	ActiveUsers      int
	TotalPosts       int
	TotalComments    int
	TotalPawvotes    int
	TotalReactions   int
	TotalSaves       int
	TotalFeedLoads   int
	PollCount        int
	RequestLatencies []time.Duration
}

// Track simulated users along with the token and per-user state the
// engine expects us to carry between requests.
type SimulatedUser struct {
	ID            uuid.UUID
	Username      string
	Email         string
	Token         string
	IsConnected   bool
	LastActive    time.Time
	Favorites     []string // category IDs this user posts and browses in
	Posts         []uuid.UUID
	PawvotedPosts map[uuid.UUID]bool
	ReactedPosts  map[uuid.UUID]bool
	SavedPosts    map[uuid.UUID]bool
	FeedVersion   uint64 // bumped on pull-to-refresh to reshuffle pins
}

type Simulator struct {
	config     SimConfig
	stats      *SimulationStats
	users      []*SimulatedUser
	categories []models.Category
	client     *http.Client
	mu         sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			StartTime:        time.Now(),
			RequestLatencies: make([]time.Duration, 0),
		},
		categories: models.DefaultTaxonomy(),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting load simulation...")

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %v", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.SimulateActivities(ctx); err != nil {
			log.Printf("Activities simulation error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateConnectivity(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	log.Printf("Starting initialization...")

	log.Printf("Phase 1: Registering %d users...", s.config.NumUsers)
	if err := s.createInitialUsers(ctx); err != nil {
		return fmt.Errorf("failed to create initial users: %v", err)
	}

	log.Printf("Phase 2: Assigning favorite categories...")
	s.assignFavorites()

	log.Printf("Phase 3: Simulating follow graph...")
	if err := s.simulateFollows(ctx); err != nil {
		return fmt.Errorf("failed to simulate follows: %v", err)
	}

	log.Printf("Initialization completed successfully")
	return nil
}

func (s *Simulator) createInitialUsers(ctx context.Context) error {
	s.users = make([]*SimulatedUser, 0, s.config.NumUsers)
	s.mu.Lock()
	defer s.mu.Unlock()

	// A handful of workers so registration does not overwhelm the actor
	// system on startup.
	numWorkers := 5
	userJobs := make(chan int, numWorkers)
	results := make(chan *SimulatedUser, numWorkers)

	var wg sync.WaitGroup

	rateLimiter := time.NewTicker(200 * time.Millisecond) // 5 requests per second
	defer rateLimiter.Stop()

	run := time.Now().Unix()
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			for userNum := range userJobs {
				<-rateLimiter.C

				user := &SimulatedUser{
					Username:      fmt.Sprintf("pawuser_%d_%d", run, userNum),
					Email:         fmt.Sprintf("pawuser_%d_%d@test.com", run, userNum),
					IsConnected:   true,
					PawvotedPosts: make(map[uuid.UUID]bool),
					ReactedPosts:  make(map[uuid.UUID]bool),
					SavedPosts:    make(map[uuid.UUID]bool),
					Posts:         make([]uuid.UUID, 0),
				}

				var err error
				for retries := 0; retries < 3; retries++ {
					if err = s.registerAndLogin(ctx, user, client); err == nil {
						results <- user
						break
					}
					backoffDuration := time.Duration(math.Pow(2, float64(retries))) * time.Second
					log.Printf("Worker %d: Retry %d for user %s after %v delay",
						workerID, retries+1, user.Username, backoffDuration)
					time.Sleep(backoffDuration)
				}

				if err != nil {
					log.Printf("Worker %d: Failed to register user %s after retries: %v",
						workerID, user.Username, err)
				}
			}
		}(i)
	}

	go func() {
		for i := 0; i < s.config.NumUsers; i++ {
			userJobs <- i
		}
		close(userJobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	successCount := 0
	progressTicker := time.NewTicker(2 * time.Second)
	defer progressTicker.Stop()

	for user := range results {
		s.users = append(s.users, user)
		successCount++

		select {
		case <-progressTicker.C:
			log.Printf("Progress: %d/%d users created (%.2f%%)",
				successCount, s.config.NumUsers,
				float64(successCount)/float64(s.config.NumUsers)*100)
		default:
		}

		time.Sleep(50 * time.Millisecond)
	}

	log.Printf("Successfully created %d users", len(s.users))
	return nil
}

func (s *Simulator) registerAndLogin(ctx context.Context, user *SimulatedUser, client *http.Client) error {
	data := map[string]interface{}{
		"username": user.Username,
		"email":    user.Email,
		"password": "testpass123",
	}

	resp, err := s.makeRequestWithClient(client, "", "POST", "/user/register", data)
	if err != nil {
		return fmt.Errorf("failed to register user: %v", err)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to parse registration response: %v", err)
	}

	registeredID, err := uuid.Parse(result.ID)
	if err != nil {
		return fmt.Errorf("invalid user ID returned: %v", err)
	}
	user.ID = registeredID

	// Give the actor system time to process the registration.
	time.Sleep(100 * time.Millisecond)

	loginData := map[string]interface{}{
		"email":    user.Email,
		"password": "testpass123",
	}

	loginResp, err := s.makeRequestWithClient(client, "", "POST", "/user/login", loginData)
	if err != nil {
		return fmt.Errorf("failed to login user: %v", err)
	}

	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(loginResp, &login); err != nil {
		return fmt.Errorf("failed to parse login response: %v", err)
	}
	if !login.Success {
		return fmt.Errorf("login rejected: %s", login.Error)
	}

	user.Token = login.Token
	return nil
}

// assignFavorites gives every user a Zipf-skewed set of favorite
// categories so a few categories (dogs, cats) dominate the traffic the
// way real communities do.
func (s *Simulator) assignFavorites() {
	zipf := rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano())),
		s.config.ZipfS, 1, uint64(len(s.categories)-1))

	popularity := make([]int, len(s.categories))
	for _, user := range s.users {
		numFavorites := rand.Intn(3) + 1
		seen := make(map[string]bool)
		for i := 0; i < numFavorites; i++ {
			idx := int(zipf.Uint64())
			category := s.categories[idx]
			if seen[category.ID] {
				continue
			}
			seen[category.ID] = true
			user.Favorites = append(user.Favorites, category.ID)
			popularity[idx]++
		}
	}

	log.Printf("\nCategory Popularity:")
	for i, count := range popularity {
		if count > 0 {
			log.Printf("%s: %d fans", s.categories[i].Name, count)
		}
	}
}

func (s *Simulator) simulateFollows(ctx context.Context) error {
	// Early registrants get the followers, Zipf-distributed.
	zipf := rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano())),
		s.config.ZipfS, 1, uint64(len(s.users)))

	for _, user := range s.users {
		numFollows := (int(zipf.Uint64()) % 10) + 1

		followed := make(map[uuid.UUID]bool)
		for i := 0; i < numFollows; i++ {
			target := s.users[rand.Intn(len(s.users))]
			if target.ID == user.ID || followed[target.ID] {
				continue
			}

			data := map[string]interface{}{
				"targetId": target.ID.String(),
			}
			if _, err := s.makeRequest(user.Token, "POST", "/user/follow", data); err != nil {
				log.Printf("Failed to follow user: %v", err)
				continue
			}
			followed[target.ID] = true
		}

		time.Sleep(50 * time.Millisecond)
	}

	return nil
}

func (s *Simulator) simulateConnectivity(ctx context.Context) {
	log.Printf("Starting connectivity simulation...")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			for _, user := range s.users {
				if user.IsConnected {
					if rand.Float64() < s.config.DisconnectRate {
						user.IsConnected = false
						s.stats.mu.Lock()
						s.stats.ActiveUsers--
						s.stats.mu.Unlock()
					}
				} else {
					if rand.Float64() < s.config.ReconnectRate {
						user.IsConnected = true
						user.FeedVersion++ // fresh session, fresh pin shuffle
						s.stats.mu.Lock()
						s.stats.ActiveUsers++
						s.stats.mu.Unlock()

						// A returning user opens their profile first.
						s.makeRequest(user.Token, "GET", "/user/profile", nil) // Ignore error as this is just simulation
					}
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	s.stats.RequestLatencies = append(s.stats.RequestLatencies, latency)

	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

// makeRequest goes through the shared client; token may be empty for the
// public routes.
func (s *Simulator) makeRequest(token, method, endpoint string, data interface{}) ([]byte, error) {
	return s.makeRequestWithClient(s.client, token, method, endpoint, data)
}

func (s *Simulator) makeRequestWithClient(client *http.Client, token, method, endpoint string, data interface{}) ([]byte, error) {
	var body []byte
	var err error

	if data != nil {
		body, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, s.config.EngineURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	s.recordRequestMetrics(start, err)

	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	log.Printf("Starting metrics collection...")
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stats.mu.RLock()
			elapsed := time.Since(s.stats.StartTime)
			requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()
			successRate := 0.0
			if s.stats.TotalRequests > 0 {
				successRate = float64(s.stats.SuccessRequests) / float64(s.stats.TotalRequests) * 100
			}
			s.stats.mu.RUnlock()

			activeUsers := 0
			s.mu.RLock()
			for _, user := range s.users {
				if user.IsConnected {
					activeUsers++
				}
			}
			s.mu.RUnlock()

			s.stats.mu.Lock()
			s.stats.ActiveUsers = activeUsers
			s.stats.mu.Unlock()

			s.stats.mu.RLock()
			log.Printf("\nSimulation Metrics (%.1f seconds elapsed):", elapsed.Seconds())
			log.Printf("- Request Rate: %.2f req/sec", requestRate)
			log.Printf("- Success Rate: %.1f%%", successRate)
			log.Printf("- Average Latency: %v", s.stats.AverageLatency)
			log.Printf("- Active Users: %d/%d", activeUsers, len(s.users))
			log.Printf("- Total Posts: %d (Polls: %d)", s.stats.TotalPosts, s.stats.PollCount)
			log.Printf("- Total Comments: %d", s.stats.TotalComments)
			log.Printf("- Total Pawvotes: %d", s.stats.TotalPawvotes)
			log.Printf("- Total Reactions: %d", s.stats.TotalReactions)
			log.Printf("- Total Saves: %d", s.stats.TotalSaves)
			log.Printf("- Feed Loads: %d", s.stats.TotalFeedLoads)
			log.Printf("- Failed Requests: %d", s.stats.FailedRequests)
			s.stats.mu.RUnlock()
		}
	}
}

// SimulationMetrics holds the final metrics of the simulation.
type SimulationMetrics struct {
	TotalUsers        int
	ActiveUsers       int
	TotalPosts        int
	TotalComments     int
	TotalPawvotes     int
	TotalReactions    int
	TotalSaves        int
	TotalFeedLoads    int
	PollCount         int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

// GetMetrics returns the current simulation metrics.
func (s *Simulator) GetMetrics() SimulationMetrics {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()

	return SimulationMetrics{
		TotalUsers:        len(s.users),
		ActiveUsers:       s.stats.ActiveUsers,
		TotalPosts:        s.stats.TotalPosts,
		TotalComments:     s.stats.TotalComments,
		TotalPawvotes:     s.stats.TotalPawvotes,
		TotalReactions:    s.stats.TotalReactions,
		TotalSaves:        s.stats.TotalSaves,
		TotalFeedLoads:    s.stats.TotalFeedLoads,
		PollCount:         s.stats.PollCount,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: requestRate,
	}
}
