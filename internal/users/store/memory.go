package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifeline/internal/users/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// InMemory is a directory store guarded by one lock. Email uniqueness is
// enforced under the write lock, so concurrent registrations cannot race.
type InMemory struct {
	mu    sync.RWMutex
	users map[domain.Email]*models.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[domain.Email]*models.User)}
}

func (s *InMemory) CreateIfAbsent(_ context.Context, user *models.User) (*models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[user.Email]; ok {
		c := *existing
		return &c, false, nil
	}
	c := *user
	s.users[user.Email] = &c
	return user, true, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email domain.Email) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *InMemory) List(_ context.Context, filter models.Filter, page domain.Page) ([]*models.User, error) {
	s.mu.RLock()
	matched := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.Matches(u) {
			c := *u
			matched = append(matched, &c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].Email < matched[j].Email
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return domain.Window(matched, page), nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// UpdateProfile applies only the set profile fields, leaving role and
// status as they are stored at the time of the write.
func (s *InMemory) UpdateProfile(_ context.Context, email domain.Email, profile models.Profile, at time.Time) (*models.User, error) {
	return s.mutate(email, func(u *models.User) {
		profile.ApplyTo(u)
		u.UpdatedAt = at
	})
}

func (s *InMemory) SetRole(_ context.Context, email domain.Email, role models.Role, at time.Time) (*models.User, error) {
	return s.mutate(email, func(u *models.User) {
		u.Role = role
		u.UpdatedAt = at
	})
}

func (s *InMemory) SetStatus(_ context.Context, email domain.Email, status models.Status, at time.Time) (*models.User, error) {
	return s.mutate(email, func(u *models.User) {
		u.Status = status
		u.UpdatedAt = at
	})
}

func (s *InMemory) mutate(email domain.Email, fn func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	fn(u)
	c := *u
	return &c, nil
}
