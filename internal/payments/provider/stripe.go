// Package provider adapts the payment processor to the payments service.
package provider

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"lifeline/internal/payments/models"
	dErrors "lifeline/pkg/domain-errors"
)

// Stripe creates and inspects Stripe payment intents.
type Stripe struct {
	intents paymentintent.Client
}

type Option func(*Stripe)

// WithBackend overrides the API backend, used to point the client at a test
// server.
func WithBackend(b stripe.Backend) Option {
	return func(s *Stripe) {
		s.intents.B = b
	}
}

func NewStripe(secretKey string, opts ...Option) *Stripe {
	s := &Stripe{intents: paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIntent opens an intent for amount minor units of currency.
func (s *Stripe) CreateIntent(ctx context.Context, amount int64, currency, receiptEmail string) (*models.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if receiptEmail != "" {
		params.ReceiptEmail = stripe.String(receiptEmail)
	}
	params.Context = ctx

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, translate(err, "failed to create payment intent")
	}
	return &models.Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// IntentStatus fetches the current state of intent id.
func (s *Stripe) IntentStatus(ctx context.Context, id string) (*models.IntentState, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.intents.Get(id, params)
	if err != nil {
		return nil, translate(err, "failed to load payment intent")
	}
	return &models.IntentState{
		ID:           pi.ID,
		Succeeded:    pi.Status == stripe.PaymentIntentStatusSucceeded,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		ReceiptEmail: pi.ReceiptEmail,
	}, nil
}

func translate(err error, msg string) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		switch {
		case serr.Code == stripe.ErrorCodeResourceMissing:
			return dErrors.New(dErrors.CodeNotFound, "payment intent not found")
		case serr.Type == stripe.ErrorTypeInvalidRequest:
			return dErrors.Wrap(err, dErrors.CodeBadRequest, serr.Msg)
		}
	}
	return dErrors.Wrap(err, dErrors.CodeUpstreamFailure, msg)
}
