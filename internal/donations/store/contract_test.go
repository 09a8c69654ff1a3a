package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/internal/donations/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

type requestStore interface {
	Create(ctx context.Context, r *models.DonationRequest) error
	FindByID(ctx context.Context, id domain.DonationID) (*models.DonationRequest, error)
	List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, r *models.DonationRequest) error
	UpdateStatus(ctx context.Context, r *models.DonationRequest, from models.Status) error
	Delete(ctx context.Context, id domain.DonationID) error
}

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newRequest(t *testing.T, owner string, offset time.Duration) *models.DonationRequest {
	t.Helper()
	r, err := models.NewDonationRequest(domain.Email(owner), "Owner", models.Draft{
		RecipientName: "Recipient",
		BloodGroup:    "A+",
		District:      "Dhaka",
		Upazila:       "Mirpur",
		Hospital:      "DMCH",
		Address:       "Road 1",
		DonationDate:  "2026-05-01",
		DonationTime:  "09:00",
	}, base.Add(offset))
	require.NoError(t, err)
	return r
}

func runRequestContract(t *testing.T, newStore func(t *testing.T) requestStore) {
	ctx := context.Background()

	t.Run("create find update delete", func(t *testing.T) {
		s := newStore(t)
		r := newRequest(t, "ana@example.com", 0)
		require.NoError(t, s.Create(ctx, r))

		got, err := s.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Recipient", got.RecipientName)
		assert.Equal(t, models.StatusPending, got.Status)

		got.Hospital = "Square"
		require.NoError(t, s.Update(ctx, got))
		got, err = s.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Square", got.Hospital)

		require.NoError(t, s.Delete(ctx, r.ID))
		_, err = s.FindByID(ctx, r.ID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, r.ID), sentinel.ErrNotFound)
	})

	t.Run("status update is compare and set", func(t *testing.T) {
		s := newStore(t)
		r := newRequest(t, "ana@example.com", 0)
		require.NoError(t, s.Create(ctx, r))

		started := *r
		require.NoError(t, started.TransitionTo(models.StatusInProgress, "Vol", "vol@example.com", base))
		require.NoError(t, s.UpdateStatus(ctx, &started, models.StatusPending))

		canceled := *r
		require.NoError(t, canceled.TransitionTo(models.StatusCanceled, "", "", base))
		assert.ErrorIs(t, s.UpdateStatus(ctx, &canceled, models.StatusPending), sentinel.ErrInvalidState)

		got, err := s.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, got.Status)
		assert.Equal(t, domain.Email("vol@example.com"), got.DonorEmail)
	})

	t.Run("edit from a stale copy keeps a later transition", func(t *testing.T) {
		s := newStore(t)
		r := newRequest(t, "ana@example.com", 0)
		require.NoError(t, s.Create(ctx, r))

		stale, err := s.FindByID(ctx, r.ID)
		require.NoError(t, err)
		started := *r
		require.NoError(t, started.TransitionTo(models.StatusInProgress, "Vol", "vol@example.com", base))
		require.NoError(t, s.UpdateStatus(ctx, &started, models.StatusPending))

		stale.Hospital = "Square"
		require.NoError(t, s.Update(ctx, stale))

		got, err := s.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "Square", got.Hospital)
		assert.Equal(t, models.StatusInProgress, got.Status)
		assert.Equal(t, domain.Email("vol@example.com"), got.DonorEmail)
	})

	t.Run("pending page two holds matches eleven to twenty", func(t *testing.T) {
		s := newStore(t)
		var pending []*models.DonationRequest
		for i := 0; i < 30; i++ {
			r := newRequest(t, fmt.Sprintf("owner%d@example.com", i%3), time.Duration(i)*time.Minute)
			if i%4 == 3 {
				r.Status = models.StatusDone
			} else {
				pending = append(pending, r)
			}
			require.NoError(t, s.Create(ctx, r))
		}
		require.GreaterOrEqual(t, len(pending), 20)

		got, err := s.List(ctx, models.Filter{Status: models.StatusPending}, domain.Page{Number: 2, Size: 10})
		require.NoError(t, err)
		require.Len(t, got, 10)
		for i, r := range got {
			assert.Equal(t, pending[10+i].ID, r.ID)
		}

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 30, n)

		mine, err := s.List(ctx, models.Filter{RequesterEmail: "owner0@example.com"}, domain.Page{Number: 1, Size: 100})
		require.NoError(t, err)
		assert.Len(t, mine, 10)
	})
}
