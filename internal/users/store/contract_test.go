package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/internal/users/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

type directoryStore interface {
	CreateIfAbsent(ctx context.Context, user *models.User) (*models.User, bool, error)
	FindByEmail(ctx context.Context, email domain.Email) (*models.User, error)
	List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, email domain.Email, profile models.Profile, at time.Time) (*models.User, error)
	SetRole(ctx context.Context, email domain.Email, role models.Role, at time.Time) (*models.User, error)
	SetStatus(ctx context.Context, email domain.Email, status models.Status, at time.Time) (*models.User, error)
}

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newUser(t *testing.T, email string, offset time.Duration) *models.User {
	t.Helper()
	name := "User " + email
	u, err := models.NewUser(domain.Email(email), models.Profile{Name: &name}, base.Add(offset))
	require.NoError(t, err)
	return u
}

// runDirectoryContract exercises the behaviour every directory store shares.
func runDirectoryContract(t *testing.T, newStore func(t *testing.T) directoryStore) {
	ctx := context.Background()

	t.Run("create if absent keeps the first identity", func(t *testing.T) {
		s := newStore(t)
		first := newUser(t, "ana@example.com", 0)
		got, created, err := s.CreateIfAbsent(ctx, first)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, first.ID, got.ID)

		second := newUser(t, "ana@example.com", time.Minute)
		got, created, err = s.CreateIfAbsent(ctx, second)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, got.ID)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("concurrent registrations store one identity", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		var mu sync.Mutex
		createdCount := 0
		for i := 0; i < 8; i++ {
			u := newUser(t, "race@example.com", 0)
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, created, err := s.CreateIfAbsent(ctx, u)
				assert.NoError(t, err)
				if created {
					mu.Lock()
					createdCount++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, createdCount)
	})

	t.Run("find missing returns not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.FindByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("targeted writes persist role and status", func(t *testing.T) {
		s := newStore(t)
		_, _, err := s.CreateIfAbsent(ctx, newUser(t, "ben@example.com", 0))
		require.NoError(t, err)

		_, err = s.SetRole(ctx, "ben@example.com", models.RoleVolunteer, base.Add(time.Hour))
		require.NoError(t, err)
		got, err := s.SetStatus(ctx, "ben@example.com", models.StatusBlocked, base.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, models.RoleVolunteer, got.Role)
		assert.True(t, got.IsBlocked())
		assert.True(t, got.UpdatedAt.Equal(base.Add(2*time.Hour)))

		_, err = s.SetRole(ctx, "ghost@example.com", models.RoleAdmin, base)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.SetStatus(ctx, "ghost@example.com", models.StatusBlocked, base)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("profile update leaves role and status alone", func(t *testing.T) {
		s := newStore(t)
		_, _, err := s.CreateIfAbsent(ctx, newUser(t, "cat@example.com", 0))
		require.NoError(t, err)
		_, err = s.SetRole(ctx, "cat@example.com", models.RoleAdmin, base)
		require.NoError(t, err)
		_, err = s.SetStatus(ctx, "cat@example.com", models.StatusBlocked, base)
		require.NoError(t, err)

		district := "Sylhet"
		got, err := s.UpdateProfile(ctx, "cat@example.com", models.Profile{District: &district}, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "Sylhet", got.District)
		assert.Equal(t, "User cat@example.com", got.Name, "unset fields are kept")

		stored, err := s.FindByEmail(ctx, "cat@example.com")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, stored.Role)
		assert.True(t, stored.IsBlocked())
		assert.Equal(t, "Sylhet", stored.District)

		_, err = s.UpdateProfile(ctx, "ghost@example.com", models.Profile{District: &district}, base)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list filters then pages in creation order", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 25; i++ {
			u := newUser(t, fmt.Sprintf("u%02d@example.com", i), time.Duration(i)*time.Minute)
			if i%2 == 1 {
				u.Status = models.StatusBlocked
			}
			_, _, err := s.CreateIfAbsent(ctx, u)
			require.NoError(t, err)
		}

		page2, err := s.List(ctx, models.Filter{}, domain.Page{Number: 2, Size: 10})
		require.NoError(t, err)
		require.Len(t, page2, 10)
		assert.Equal(t, domain.Email("u10@example.com"), page2[0].Email)
		assert.Equal(t, domain.Email("u19@example.com"), page2[9].Email)

		blocked, err := s.List(ctx, models.Filter{Status: models.StatusBlocked}, domain.Page{Number: 2, Size: 5})
		require.NoError(t, err)
		require.Len(t, blocked, 5)
		assert.Equal(t, domain.Email("u11@example.com"), blocked[0].Email)

		beyond, err := s.List(ctx, models.Filter{}, domain.Page{Number: 9, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, beyond)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 25, n)
	})
}
