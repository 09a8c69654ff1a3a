package service

import (
	"context"
	"errors"
	"log/slog"

	"lifeline/internal/audit"
	"lifeline/internal/donations/models"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/policy"
	userModels "lifeline/internal/users/models"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.DonationRequest) error
	FindByID(ctx context.Context, id domain.DonationID) (*models.DonationRequest, error)
	List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, r *models.DonationRequest) error
	UpdateStatus(ctx context.Context, r *models.DonationRequest, from models.Status) error
	Delete(ctx context.Context, id domain.DonationID) error
}

// Authorizer gates every operation. Owner-scoped operations call Admit
// before the resource is loaded and Authorize with its owner afterwards.
type Authorizer interface {
	Admit(ctx context.Context, op policy.Operation) (*userModels.User, error)
	Authorize(ctx context.Context, action policy.Action) (*userModels.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages donation requests and their lifecycle.
type Service struct {
	store          Store
	gate           Authorizer
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

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
		return nil, errors.New("donation store is required")
	}
	if gate == nil {
		return nil, errors.New("authorizer is required")
	}
	s := &Service{store: store, gate: gate, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create opens a pending request owned by the caller.
func (s *Service) Create(ctx context.Context, draft models.Draft) (*models.DonationRequest, error) {
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpDonationCreate})
	if err != nil {
		return nil, err
	}
	r, err := models.NewDonationRequest(caller.Email, caller.Name, draft, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, err
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, translate(err, "failed to create donation request")
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id domain.DonationID) (*models.DonationRequest, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpDonationRead}); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// List is the public board. Without a status filter it shows pending
// requests only.
func (s *Service) List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpDonationList}); err != nil {
		return nil, err
	}
	if filter.Status == "" {
		filter.Status = models.StatusPending
	}
	filter.RequesterEmail = ""
	return s.list(ctx, filter, page)
}

// ListMine lists the caller's own requests.
func (s *Service) ListMine(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error) {
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpDonationListMine})
	if err != nil {
		return nil, err
	}
	filter.RequesterEmail = caller.Email
	return s.list(ctx, filter, page)
}

// ListAll is the management view across every requester and status.
func (s *Service) ListAll(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpDonationListAll}); err != nil {
		return nil, err
	}
	filter.RequesterEmail = ""
	return s.list(ctx, filter, page)
}

// Count returns the unfiltered total.
func (s *Service) Count(ctx context.Context) (int, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpDonationCount}); err != nil {
		return 0, err
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, translate(err, "failed to count donation requests")
	}
	return n, nil
}

func (s *Service) Update(ctx context.Context, id domain.DonationID, draft models.Draft) (*models.DonationRequest, error) {
	if _, err := s.gate.Admit(ctx, policy.OpDonationUpdate); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpDonationUpdate, OwnerEmail: r.RequesterEmail}); err != nil {
		return nil, err
	}
	r.Apply(draft, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, r); err != nil {
		return nil, translate(err, "failed to update donation request")
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id domain.DonationID) error {
	if _, err := s.gate.Admit(ctx, policy.OpDonationDelete); err != nil {
		return err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpDonationDelete, OwnerEmail: r.RequesterEmail})
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return translate(err, "failed to delete donation request")
	}
	s.emit(ctx, audit.Event{
		Action:  audit.EventDonationDeleted,
		Actor:   caller.Email.String(),
		Subject: id.String(),
	})
	return nil
}

// Transition moves a request to status to. The caller is admitted before the
// request is loaded and authorized against its owner before the state
// machine runs, so a caller with no stake in the request learns nothing
// about its state.
func (s *Service) Transition(ctx context.Context, id domain.DonationID, to models.Status) (*models.DonationRequest, error) {
	op := transitionOperation(to)
	if _, err := s.gate.Admit(ctx, op); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: op, OwnerEmail: r.RequesterEmail})
	if err != nil {
		return nil, err
	}

	from := r.Status
	if err := r.TransitionTo(to, caller.Name, caller.Email, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.UpdateStatus(ctx, r, from); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "donation request status changed concurrently")
		}
		return nil, translate(err, "failed to update donation status")
	}

	s.metrics.ObserveDonationTransition(string(to))
	s.emit(ctx, audit.Event{
		Action:   audit.EventDonationTransition,
		Actor:    caller.Email.String(),
		Subject:  id.String(),
		Decision: string(to),
		Reason:   "from " + string(from),
	})
	return r, nil
}

// transitionOperation names the gated operation for a move to status to.
// Moves with no operation of their own are gated as an owner edit and then
// rejected by the state machine.
func transitionOperation(to models.Status) policy.Operation {
	switch to {
	case models.StatusInProgress:
		return policy.OpDonationStart
	case models.StatusCanceled:
		return policy.OpDonationCancel
	case models.StatusDone:
		return policy.OpDonationComplete
	default:
		return policy.OpDonationUpdate
	}
}

func (s *Service) load(ctx context.Context, id domain.DonationID) (*models.DonationRequest, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load donation request")
	}
	return r, nil
}

func (s *Service) list(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error) {
	out, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, translate(err, "failed to list donation requests")
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "donation request not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "donation request already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeUpstreamFailure, msg)
	}
}
