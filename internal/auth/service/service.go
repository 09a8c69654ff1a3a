// Package service issues credentials to registered users and revokes them
// on logout.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lifeline/internal/audit"
	"lifeline/internal/policy"
	"lifeline/internal/token"
	userModels "lifeline/internal/users/models"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/requestcontext"
)

type Directory interface {
	FindByEmail(ctx context.Context, email domain.Email) (*userModels.User, error)
}

type Issuer interface {
	Issue(claims token.Claims) (string, error)
	TTL() time.Duration
}

type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

type Authorizer interface {
	Authorize(ctx context.Context, action policy.Action) (*userModels.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Session is a freshly issued credential.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	directory      Directory
	issuer         Issuer
	revocations    RevocationList
	gate           Authorizer
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

func New(directory Directory, issuer Issuer, revocations RevocationList, gate Authorizer, opts ...Option) (*Service, error) {
	if directory == nil {
		return nil, errors.New("user directory is required")
	}
	if issuer == nil {
		return nil, errors.New("token issuer is required")
	}
	if revocations == nil {
		return nil, errors.New("revocation list is required")
	}
	if gate == nil {
		return nil, errors.New("authorizer is required")
	}
	s := &Service{
		directory:   directory,
		issuer:      issuer,
		revocations: revocations,
		gate:        gate,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a credential for a registered email. The claims carry the
// directory's role and status as of now; later changes are not reflected
// until the user signs in again.
func (s *Service) Issue(ctx context.Context, rawEmail string) (*Session, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpTokenIssue}); err != nil {
		return nil, err
	}
	email, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.logger.InfoContext(ctx, "token requested for unregistered email",
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, dErrors.New(dErrors.CodeUnauthorized, "email is not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamFailure, "failed to look up user")
	}

	claims := token.Claims{
		Email:  user.Email.String(),
		Name:   user.Name,
		Role:   string(user.Role),
		Status: string(user.Status),
	}
	signed, err := s.issuer.Issue(claims)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     signed,
		ExpiresAt: requestcontext.Now(ctx).Add(s.issuer.TTL()),
	}, nil
}

// Revoke puts the caller's credential on the revocation list until it would
// have expired anyway.
func (s *Service) Revoke(ctx context.Context) error {
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpTokenRevoke})
	if err != nil {
		return err
	}
	claims := token.FromContext(ctx)
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	remaining := claims.ExpiresAt.Sub(requestcontext.Now(ctx))
	if remaining <= 0 {
		return nil
	}
	if err := s.revocations.RevokeToken(ctx, claims.ID, remaining); err != nil {
		s.logger.ErrorContext(ctx, "failed to add token to revocation list",
			"request_id", requestcontext.RequestID(ctx),
			"jti", claims.ID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeUpstreamFailure, "failed to revoke token")
	}
	s.emit(ctx, audit.Event{
		Action:  audit.EventTokenRevoked,
		Actor:   caller.Email.String(),
		Subject: claims.ID,
	})
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
