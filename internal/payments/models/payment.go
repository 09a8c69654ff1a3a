package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// Payment records one completed contribution. Records are append-only and
// keyed by the provider's intent ID, so recording the same intent twice
// yields one record.
type Payment struct {
	ID         domain.PaymentID `json:"id"`
	IntentID   string           `json:"intent_id"`
	Amount     int64            `json:"amount"`
	Currency   string           `json:"currency"`
	PayerEmail domain.Email     `json:"payer_email"`
	PayerName  string           `json:"payer_name,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

func NewPayment(intentID string, amount int64, currency string, payer domain.Email, payerName string, now time.Time) (*Payment, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "intent id cannot be empty")
	}
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "amount must be positive")
	}
	if payer == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "payer email cannot be empty")
	}
	return &Payment{
		ID:         domain.PaymentID(uuid.New()),
		IntentID:   intentID,
		Amount:     amount,
		Currency:   strings.ToLower(currency),
		PayerEmail: payer,
		PayerName:  payerName,
		CreatedAt:  now,
	}, nil
}

// Intent is what the client needs to confirm a payment with the provider.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// IntentState is the provider's view of an intent. ReceiptEmail is the
// payer the intent was opened for.
type IntentState struct {
	ID           string
	Succeeded    bool
	Amount       int64
	Currency     string
	ReceiptEmail string
}

// Filter scopes listings to one payer when PayerEmail is set.
type Filter struct {
	PayerEmail domain.Email
}

func (f Filter) Matches(p *Payment) bool {
	return f.PayerEmail == "" || p.PayerEmail == f.PayerEmail
}
