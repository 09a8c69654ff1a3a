package store

import (
	"context"
	"sort"
	"sync"

	"lifeline/internal/payments/models"
	"lifeline/pkg/domain"
)

type InMemory struct {
	mu       sync.RWMutex
	byIntent map[string]*models.Payment
}

func NewInMemory() *InMemory {
	return &InMemory{byIntent: make(map[string]*models.Payment)}
}

// CreateIfAbsent appends p unless its intent was already recorded, in which
// case the existing record is returned.
func (s *InMemory) CreateIfAbsent(_ context.Context, p *models.Payment) (*models.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byIntent[p.IntentID]; ok {
		c := *existing
		return &c, false, nil
	}
	c := *p
	s.byIntent[p.IntentID] = &c
	return p, true, nil
}

func (s *InMemory) List(_ context.Context, filter models.Filter, page domain.Page) ([]*models.Payment, error) {
	s.mu.RLock()
	matched := make([]*models.Payment, 0, len(s.byIntent))
	for _, p := range s.byIntent {
		if filter.Matches(p) {
			c := *p
			matched = append(matched, &c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].IntentID < matched[j].IntentID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return domain.Window(matched, page), nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byIntent), nil
}

// Total sums every recorded amount in minor units.
func (s *InMemory) Total(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, p := range s.byIntent {
		total += p.Amount
	}
	return total, nil
}
