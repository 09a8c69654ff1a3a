package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/internal/blogs/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

type blogStore interface {
	Create(ctx context.Context, b *models.Blog) error
	FindByID(ctx context.Context, id domain.BlogID) (*models.Blog, error)
	List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.Blog, error)
	Count(ctx context.Context) (int, error)
	UpdateContent(ctx context.Context, b *models.Blog) (*models.Blog, error)
	Publish(ctx context.Context, id domain.BlogID, at time.Time) error
	Delete(ctx context.Context, id domain.BlogID) error
}

func runBlogContract(t *testing.T, newStore func(t *testing.T) blogStore) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("lists newest first with status filter", func(t *testing.T) {
		s := newStore(t)
		var ids []domain.BlogID
		for i := 0; i < 6; i++ {
			b, err := models.NewBlog("ana@example.com", models.Draft{Title: "t", Content: "c"}, base.Add(time.Duration(i)*time.Hour))
			require.NoError(t, err)
			if i%2 == 0 {
				require.NoError(t, b.Publish(b.CreatedAt))
			}
			require.NoError(t, s.Create(ctx, b))
			ids = append(ids, b.ID)
		}

		published, err := s.List(ctx, models.Filter{Status: models.StatusPublished}, domain.FirstPage())
		require.NoError(t, err)
		require.Len(t, published, 3)
		assert.Equal(t, ids[4], published[0].ID)
		assert.Equal(t, ids[0], published[2].ID)

		second, err := s.List(ctx, models.Filter{}, domain.Page{Number: 2, Size: 4})
		require.NoError(t, err)
		assert.Len(t, second, 2)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 6, n)
	})

	t.Run("publish is one-way", func(t *testing.T) {
		s := newStore(t)
		b, err := models.NewBlog("ana@example.com", models.Draft{Title: "t", Content: "c"}, base)
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, b))

		require.NoError(t, s.Publish(ctx, b.ID, base.Add(time.Minute)))
		got, err := s.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, got.IsPublished())

		assert.ErrorIs(t, s.Publish(ctx, b.ID, base.Add(time.Hour)), sentinel.ErrInvalidState)
		assert.ErrorIs(t, s.Publish(ctx, domain.BlogID(uuid.New()), base), sentinel.ErrNotFound)
	})

	t.Run("content edit from a stale draft keeps the post published", func(t *testing.T) {
		s := newStore(t)
		b, err := models.NewBlog("ana@example.com", models.Draft{Title: "t", Content: "c"}, base)
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, b))

		stale, err := s.FindByID(ctx, b.ID)
		require.NoError(t, err)
		require.NoError(t, s.Publish(ctx, b.ID, base.Add(time.Minute)))

		stale.Apply(models.Draft{Title: "edited", Content: "c2"}, base.Add(2*time.Minute))
		got, err := s.UpdateContent(ctx, stale)
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Title)
		assert.True(t, got.IsPublished())

		stored, err := s.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsPublished())
		assert.Equal(t, "c2", stored.Content)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		b, err := models.NewBlog("ana@example.com", models.Draft{Title: "t", Content: "c"}, base)
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, b))

		require.NoError(t, s.Delete(ctx, b.ID))
		_, err = s.FindByID(ctx, b.ID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, b.ID), sentinel.ErrNotFound)
		_, err = s.UpdateContent(ctx, b)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
