package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lifeline/internal/audit"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/policy"
	"lifeline/internal/users/models"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/requestcontext"
)

type Store interface {
	CreateIfAbsent(ctx context.Context, user *models.User) (*models.User, bool, error)
	FindByEmail(ctx context.Context, email domain.Email) (*models.User, error)
	List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, email domain.Email, profile models.Profile, at time.Time) (*models.User, error)
	SetRole(ctx context.Context, email domain.Email, role models.Role, at time.Time) (*models.User, error)
	SetStatus(ctx context.Context, email domain.Email, status models.Status, at time.Time) (*models.User, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, action policy.Action) (*models.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the user directory.
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
		return nil, errors.New("user store is required")
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

// Register creates the identity for email on first call and returns the
// existing one afterwards. created reports which case happened.
func (s *Service) Register(ctx context.Context, email string, profile models.Profile) (*models.User, bool, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpUserRegister}); err != nil {
		return nil, false, err
	}
	addr, err := domain.ParseEmail(email)
	if err != nil {
		return nil, false, err
	}
	user, err := models.NewUser(addr, profile, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, false, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, false, err
	}

	stored, created, err := s.store.CreateIfAbsent(ctx, user)
	if err != nil {
		return nil, false, translate(err, "failed to register user")
	}
	if created {
		s.metrics.IncrementUsersRegistered()
		s.emit(ctx, audit.Event{Action: audit.EventUserRegistered, Actor: addr.String(), Subject: addr.String()})
		s.logger.InfoContext(ctx, "user registered", "email", addr)
	}
	return stored, created, nil
}

// FindByEmail is the ungated directory lookup used by the gate and by token
// issuance.
func (s *Service) FindByEmail(ctx context.Context, email domain.Email) (*models.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, translate(err, "failed to load user")
	}
	return user, nil
}

// Get returns one identity to its owner or to an admin.
func (s *Service) Get(ctx context.Context, email domain.Email) (*models.User, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpUserRead, OwnerEmail: email}); err != nil {
		return nil, err
	}
	return s.FindByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.User, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpUserList}); err != nil {
		return nil, err
	}
	users, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, translate(err, "failed to list users")
	}
	return users, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpUserList}); err != nil {
		return 0, err
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, translate(err, "failed to count users")
	}
	return n, nil
}

// UpdateProfile applies the self-editable fields. Role, status and email are
// never touched here.
func (s *Service) UpdateProfile(ctx context.Context, email domain.Email, profile models.Profile) (*models.User, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpUserUpdate, OwnerEmail: email}); err != nil {
		return nil, err
	}
	profile, err := profile.Clean()
	if err != nil {
		return nil, err
	}
	user, err := s.store.UpdateProfile(ctx, email, profile, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "failed to update user")
	}
	return user, nil
}

func (s *Service) SetRole(ctx context.Context, email domain.Email, role models.Role) (*models.User, error) {
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpUserSetRole, OwnerEmail: email})
	if err != nil {
		return nil, err
	}
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	from := user.Role
	user, err = s.store.SetRole(ctx, email, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "failed to update role")
	}
	s.emit(ctx, audit.Event{
		Action:   audit.EventRoleChanged,
		Actor:    caller.Email.String(),
		Subject:  email.String(),
		Decision: string(role),
		Reason:   "from " + string(from),
	})
	return user, nil
}

func (s *Service) SetStatus(ctx context.Context, email domain.Email, status models.Status) (*models.User, error) {
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpUserSetStatus, OwnerEmail: email})
	if err != nil {
		return nil, err
	}
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Status == status {
		return user, nil
	}
	user, err = s.store.SetStatus(ctx, email, status, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "failed to update status")
	}
	s.emit(ctx, audit.Event{
		Action:   audit.EventStatusChanged,
		Actor:    caller.Email.String(),
		Subject:  email.String(),
		Decision: string(status),
	})
	return user, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

// translate maps store sentinels onto coded errors. Anything the store did
// not classify is treated as a failed dependency.
func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "user already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeUpstreamFailure, msg)
	}
}
