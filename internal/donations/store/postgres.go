package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lifeline/internal/donations/models"
	"lifeline/internal/platform/postgres"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

const requestColumns = `id, requester_email, requester_name, recipient_name, blood_group, district,
	upazila, hospital, address, donation_date, donation_time, message, status,
	donor_name, donor_email, created_at, updated_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, r *models.DonationRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO donation_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		uuid.UUID(r.ID), string(r.RequesterEmail), r.RequesterName, r.RecipientName, r.BloodGroup,
		r.District, r.Upazila, r.Hospital, r.Address, r.DonationDate, r.DonationTime, r.Message,
		string(r.Status), r.DonorName, string(r.DonorEmail), r.CreatedAt, r.UpdatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert donation request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DonationID) (*models.DonationRequest, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM donation_requests WHERE id = $1`, uuid.UUID(id))
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find donation request: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+` FROM donation_requests
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR requester_email = $2)
		ORDER BY created_at, id
		OFFSET $3 LIMIT $4`,
		string(filter.Status), string(filter.RequesterEmail), page.Skip(), page.Limit(),
	)
	if err != nil {
		return nil, fmt.Errorf("list donation requests: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.DonationRequest, error) {
		return scanRequest(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan donation requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM donation_requests`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count donation requests: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Update(ctx context.Context, r *models.DonationRequest) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE donation_requests
		SET recipient_name = $2, blood_group = $3, district = $4, upazila = $5, hospital = $6,
		    address = $7, donation_date = $8, donation_time = $9, message = $10, updated_at = $11
		WHERE id = $1`,
		uuid.UUID(r.ID), r.RecipientName, r.BloodGroup, r.District, r.Upazila, r.Hospital,
		r.Address, r.DonationDate, r.DonationTime, r.Message, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update donation request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// UpdateStatus is a compare-and-set on status so two racing transitions
// cannot both apply.
func (s *PostgresStore) UpdateStatus(ctx context.Context, r *models.DonationRequest, from models.Status) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE donation_requests
		SET status = $2, donor_name = $3, donor_email = $4, updated_at = $5
		WHERE id = $1 AND status = $6`,
		uuid.UUID(r.ID), string(r.Status), r.DonorName, string(r.DonorEmail), r.UpdatedAt, string(from),
	)
	if err != nil {
		return fmt.Errorf("update donation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.FindByID(ctx, r.ID); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.DonationID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM donation_requests WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete donation request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanRequest(row pgx.Row) (*models.DonationRequest, error) {
	var (
		r                             models.DonationRequest
		id                            uuid.UUID
		requester, status, donorEmail string
	)
	err := row.Scan(&id, &requester, &r.RequesterName, &r.RecipientName, &r.BloodGroup, &r.District,
		&r.Upazila, &r.Hospital, &r.Address, &r.DonationDate, &r.DonationTime, &r.Message, &status,
		&r.DonorName, &donorEmail, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = domain.DonationID(id)
	r.RequesterEmail = domain.Email(requester)
	r.Status = models.Status(status)
	r.DonorEmail = domain.Email(donorEmail)
	return &r, nil
}
