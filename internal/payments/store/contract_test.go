package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/internal/payments/models"
	"lifeline/pkg/domain"
)

type paymentStore interface {
	CreateIfAbsent(ctx context.Context, p *models.Payment) (*models.Payment, bool, error)
	List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.Payment, error)
	Count(ctx context.Context) (int, error)
	Total(ctx context.Context) (int64, error)
}

func runPaymentContract(t *testing.T, newStore func(t *testing.T) paymentStore) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("recording an intent twice keeps one record", func(t *testing.T) {
		s := newStore(t)
		first, err := models.NewPayment("pi_1", 1000, "usd", "ana@example.com", "Ana", base)
		require.NoError(t, err)
		_, created, err := s.CreateIfAbsent(ctx, first)
		require.NoError(t, err)
		assert.True(t, created)

		again, err := models.NewPayment("pi_1", 1000, "usd", "ana@example.com", "Ana", base.Add(time.Minute))
		require.NoError(t, err)
		got, created, err := s.CreateIfAbsent(ctx, again)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, got.ID)

		total, err := s.Total(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), total)
	})

	t.Run("list scopes by payer and totals all", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 5; i++ {
			payer := domain.Email("ana@example.com")
			if i%2 == 1 {
				payer = "ben@example.com"
			}
			p, err := models.NewPayment(fmt.Sprintf("pi_%d", i), int64(100*(i+1)), "usd", payer, "", base.Add(time.Duration(i)*time.Hour))
			require.NoError(t, err)
			_, _, err = s.CreateIfAbsent(ctx, p)
			require.NoError(t, err)
		}

		mine, err := s.List(ctx, models.Filter{PayerEmail: "ana@example.com"}, domain.FirstPage())
		require.NoError(t, err)
		require.Len(t, mine, 3)
		assert.Equal(t, "pi_4", mine[0].IntentID)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		total, err := s.Total(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), total)
	})
}
