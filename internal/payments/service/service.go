package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"lifeline/internal/audit"
	"lifeline/internal/payments/models"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/policy"
	userModels "lifeline/internal/users/models"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/requestcontext"
)

type Store interface {
	CreateIfAbsent(ctx context.Context, p *models.Payment) (*models.Payment, bool, error)
	List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.Payment, error)
}

// IntentProvider is the payment processor.
type IntentProvider interface {
	CreateIntent(ctx context.Context, amount int64, currency, receiptEmail string) (*models.Intent, error)
	IntentStatus(ctx context.Context, id string) (*models.IntentState, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, action policy.Action) (*userModels.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service creates payment intents and records completed payments. Without a
// provider, intents cannot be created and recorded payments are not checked
// against the processor.
type Service struct {
	store          Store
	gate           Authorizer
	provider       IntentProvider
	currency       string
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithProvider(p IntentProvider) Option {
	return func(s *Service) {
		s.provider = p
	}
}

// WithCurrency sets the currency used when a request names none.
func WithCurrency(currency string) Option {
	return func(s *Service) {
		s.currency = strings.ToLower(currency)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

func New(store Store, gate Authorizer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("payment store is required")
	}
	if gate == nil {
		return nil, errors.New("authorizer is required")
	}
	s := &Service{store: store, gate: gate, currency: "usd", logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IntentRequest asks for a payment intent. Amount is in minor units.
type IntentRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

// RecordRequest reports a payment the client has confirmed.
type RecordRequest struct {
	IntentID string `json:"intent_id" validate:"required,max=255"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

func (s *Service) CreateIntent(ctx context.Context, req IntentRequest) (*models.Intent, error) {
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpPaymentCreateIntent})
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, dErrors.New(dErrors.CodeUpstreamFailure, "payment provider is not configured")
	}
	if req.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	intent, err := s.provider.CreateIntent(ctx, req.Amount, s.currencyOf(req.Currency), caller.Email.String())
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "payment intent created",
		"request_id", requestcontext.RequestID(ctx),
		"intent_id", intent.ID,
		"amount", req.Amount,
	)
	return intent, nil
}

// Record appends the payment for an intent. Recording the same intent again
// returns the original record.
func (s *Service) Record(ctx context.Context, req RecordRequest) (*models.Payment, bool, error) {
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpPaymentRecord})
	if err != nil {
		return nil, false, err
	}
	currency := s.currencyOf(req.Currency)
	if s.provider != nil {
		if err := s.verify(ctx, caller.Email, req, currency); err != nil {
			return nil, false, err
		}
	}

	p, err := models.NewPayment(req.IntentID, req.Amount, currency, caller.Email, caller.Name, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, false, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, false, err
	}
	stored, created, err := s.store.CreateIfAbsent(ctx, p)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeUpstreamFailure, "failed to record payment")
	}
	if created {
		s.metrics.ObservePayment(stored.Amount)
		s.emit(ctx, audit.Event{
			Action:   audit.EventPaymentRecorded,
			Actor:    caller.Email.String(),
			Subject:  stored.IntentID,
			Decision: strconv.FormatInt(stored.Amount, 10) + " " + stored.Currency,
		})
	}
	return stored, created, nil
}

// verify rejects payments the processor has not settled for the claimed
// amount, and intents that were opened for someone else. CreateIntent always
// sets the receipt email, so an intent without one was not opened here.
func (s *Service) verify(ctx context.Context, payer domain.Email, req RecordRequest, currency string) error {
	state, err := s.provider.IntentStatus(ctx, req.IntentID)
	if err != nil {
		return err
	}
	if !payer.Matches(domain.Email(state.ReceiptEmail)) {
		s.logger.WarnContext(ctx, "payment intent belongs to another payer",
			"request_id", requestcontext.RequestID(ctx),
			"intent_id", req.IntentID,
		)
		return dErrors.New(dErrors.CodeForbidden, "payment intent belongs to another payer")
	}
	if !state.Succeeded {
		return dErrors.New(dErrors.CodeValidation, "payment intent has not succeeded")
	}
	if state.Amount != req.Amount || !strings.EqualFold(state.Currency, currency) {
		return dErrors.New(dErrors.CodeValidation, "payment does not match the intent")
	}
	return nil
}

func (s *Service) List(ctx context.Context, page domain.Page) ([]*models.Payment, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpPaymentList}); err != nil {
		return nil, err
	}
	return s.list(ctx, models.Filter{}, page)
}

func (s *Service) ListMine(ctx context.Context, page domain.Page) ([]*models.Payment, error) {
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpPaymentListMine})
	if err != nil {
		return nil, err
	}
	return s.list(ctx, models.Filter{PayerEmail: caller.Email}, page)
}

func (s *Service) list(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.Payment, error) {
	out, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamFailure, "failed to list payments")
	}
	return out, nil
}

func (s *Service) currencyOf(requested string) string {
	if requested == "" {
		return s.currency
	}
	return strings.ToLower(requested)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
