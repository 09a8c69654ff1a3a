package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifeline/internal/blogs/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	blogs map[domain.BlogID]*models.Blog
}

func NewInMemory() *InMemory {
	return &InMemory{blogs: make(map[domain.BlogID]*models.Blog)}
}

func (s *InMemory) Create(_ context.Context, b *models.Blog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogs[b.ID]; ok {
		return sentinel.ErrConflict
	}
	c := *b
	s.blogs[b.ID] = &c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.BlogID) (*models.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blogs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (s *InMemory) List(_ context.Context, filter models.Filter, page domain.Page) ([]*models.Blog, error) {
	s.mu.RLock()
	matched := make([]*models.Blog, 0, len(s.blogs))
	for _, b := range s.blogs {
		if filter.Matches(b) {
			c := *b
			matched = append(matched, &c)
		}
	}
	s.mu.RUnlock()

	// Newest first, matching how the blog page is read.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return domain.Window(matched, page), nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blogs), nil
}

// UpdateContent replaces title, thumbnail and content. The stored status is
// kept and returned.
func (s *InMemory) UpdateContent(_ context.Context, b *models.Blog) (*models.Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.blogs[b.ID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	current.Title = b.Title
	current.Thumbnail = b.Thumbnail
	current.Content = b.Content
	current.UpdatedAt = b.UpdatedAt
	c := *current
	return &c, nil
}

// Publish moves a draft to published. A post that is no longer a draft
// yields ErrInvalidState.
func (s *InMemory) Publish(_ context.Context, id domain.BlogID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.blogs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != models.StatusDraft {
		return sentinel.ErrInvalidState
	}
	current.Status = models.StatusPublished
	current.UpdatedAt = at
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.BlogID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.blogs, id)
	return nil
}
