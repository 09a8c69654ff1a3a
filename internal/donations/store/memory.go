package store

import (
	"context"
	"sort"
	"sync"

	"lifeline/internal/donations/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	requests map[domain.DonationID]*models.DonationRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[domain.DonationID]*models.DonationRequest)}
}

func (s *InMemory) Create(_ context.Context, r *models.DonationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; ok {
		return sentinel.ErrConflict
	}
	c := *r
	s.requests[r.ID] = &c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.DonationID) (*models.DonationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *InMemory) List(_ context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error) {
	s.mu.RLock()
	matched := make([]*models.DonationRequest, 0, len(s.requests))
	for _, r := range s.requests {
		if filter.Matches(r) {
			c := *r
			matched = append(matched, &c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return domain.Window(matched, page), nil
}

// Count returns the unfiltered total.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests), nil
}

// Update writes the editable fields only. Status and donor stay as stored,
// so an edit cannot undo a transition that landed after it was loaded.
func (s *InMemory) Update(_ context.Context, r *models.DonationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	current.RecipientName = r.RecipientName
	current.BloodGroup = r.BloodGroup
	current.District = r.District
	current.Upazila = r.Upazila
	current.Hospital = r.Hospital
	current.Address = r.Address
	current.DonationDate = r.DonationDate
	current.DonationTime = r.DonationTime
	current.Message = r.Message
	current.UpdatedAt = r.UpdatedAt
	return nil
}

// UpdateStatus applies a transition only if the stored status is still from.
// A concurrent transition that got there first yields ErrInvalidState.
func (s *InMemory) UpdateStatus(_ context.Context, r *models.DonationRequest, from models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != from {
		return sentinel.ErrInvalidState
	}
	c := *r
	s.requests[r.ID] = &c
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.DonationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}
