package actors

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"paw-grove/internal/database"
	"paw-grove/internal/models"
)

// stubStore is an in-memory DBAdapter recording exactly what the actors
// hand to the persistence layer, so tests can inspect the snapshots.
type stubStore struct {
	mu             sync.Mutex
	savedPosts     []*models.Post
	deletedPosts   []uuid.UUID
	deletedAuthors []uuid.UUID
	users          map[uuid.UUID]*models.User
	usersByEmail   map[string]*models.User
}

var _ database.DBAdapter = (*stubStore)(nil)

func newStubStore() *stubStore {
	return &stubStore{
		users:        make(map[uuid.UUID]*models.User),
		usersByEmail: make(map[string]*models.User),
	}
}

func (s *stubStore) Close(ctx context.Context) error { return nil }

func (s *stubStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	s.usersByEmail[user.Email] = user
	return nil
}

func (s *stubStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *stubStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersByEmail[email], nil
}

func (s *stubStore) SavePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedPosts = append(s.savedPosts, post)
	return nil
}

func (s *stubStore) DeletePost(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletedPosts = append(s.deletedPosts, id)
	return nil
}

func (s *stubStore) DeletePostsByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletedAuthors = append(s.deletedAuthors, authorID)
	return 0, nil
}

func (s *stubStore) GetAllPosts(ctx context.Context) ([]*models.Post, error) {
	return nil, nil
}

func (s *stubStore) savedPostSnapshots() []*models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Post(nil), s.savedPosts...)
}

func (s *stubStore) authorDeletes() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uuid.UUID(nil), s.deletedAuthors...)
}

func (s *stubStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
