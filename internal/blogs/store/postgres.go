package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lifeline/internal/blogs/models"
	"lifeline/internal/platform/postgres"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

const blogColumns = `id, author_email, title, thumbnail, content, status, created_at, updated_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, b *models.Blog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO blogs (`+blogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(b.ID), string(b.AuthorEmail), b.Title, b.Thumbnail, b.Content,
		string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.BlogID) (*models.Blog, error) {
	b, err := scanBlog(s.pool.QueryRow(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = $1`, uuid.UUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find blog: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.Blog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+blogColumns+` FROM blogs
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id
		OFFSET $2 LIMIT $3`,
		string(filter.Status), page.Skip(), page.Limit(),
	)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Blog, error) {
		return scanBlog(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan blogs: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blogs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count blogs: %w", err)
	}
	return n, nil
}

// UpdateContent never writes status, so it cannot undo a publish.
func (s *PostgresStore) UpdateContent(ctx context.Context, b *models.Blog) (*models.Blog, error) {
	stored, err := scanBlog(s.pool.QueryRow(ctx, `
		UPDATE blogs SET title = $2, thumbnail = $3, content = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+blogColumns,
		uuid.UUID(b.ID), b.Title, b.Thumbnail, b.Content, b.UpdatedAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update blog: %w", err)
	}
	return stored, nil
}

// Publish is a compare-and-set from draft.
func (s *PostgresStore) Publish(ctx context.Context, id domain.BlogID, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE blogs SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4`,
		uuid.UUID(id), string(models.StatusPublished), at, string(models.StatusDraft),
	)
	if err != nil {
		return fmt.Errorf("publish blog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.BlogID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanBlog(row pgx.Row) (*models.Blog, error) {
	var (
		b              models.Blog
		id             uuid.UUID
		author, status string
	)
	if err := row.Scan(&id, &author, &b.Title, &b.Thumbnail, &b.Content, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.ID = domain.BlogID(id)
	b.AuthorEmail = domain.Email(author)
	b.Status = models.Status(status)
	return &b, nil
}
