package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lifeline/internal/payments/models"
	"lifeline/pkg/domain"
)

const paymentColumns = `id, intent_id, amount, currency, payer_email, payer_name, created_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateIfAbsent relies on the intent_id UNIQUE constraint.
func (s *PostgresStore) CreateIfAbsent(ctx context.Context, p *models.Payment) (*models.Payment, bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (intent_id) DO NOTHING`,
		uuid.UUID(p.ID), p.IntentID, p.Amount, p.Currency, string(p.PayerEmail), p.PayerName, p.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert payment: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return p, true, nil
	}
	existing, err := scanPayment(s.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE intent_id = $1`, p.IntentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("payment for intent %s vanished after conflict", p.IntentID)
		}
		return nil, false, fmt.Errorf("load existing payment: %w", err)
	}
	return existing, false, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.Payment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE ($1 = '' OR payer_email = $1)
		ORDER BY created_at DESC, intent_id
		OFFSET $2 LIMIT $3`,
		string(filter.PayerEmail), page.Skip(), page.Limit(),
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Payment, error) {
		return scanPayment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan payments: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Total(ctx context.Context) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::BIGINT FROM payments`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var (
		p     models.Payment
		id    uuid.UUID
		payer string
	)
	if err := row.Scan(&id, &p.IntentID, &p.Amount, &p.Currency, &payer, &p.PayerName, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = domain.PaymentID(id)
	p.PayerEmail = domain.Email(payer)
	return &p, nil
}
