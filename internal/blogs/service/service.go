package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lifeline/internal/audit"
	"lifeline/internal/blogs/models"
	"lifeline/internal/policy"
	userModels "lifeline/internal/users/models"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, b *models.Blog) error
	FindByID(ctx context.Context, id domain.BlogID) (*models.Blog, error)
	List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.Blog, error)
	Count(ctx context.Context) (int, error)
	UpdateContent(ctx context.Context, b *models.Blog) (*models.Blog, error)
	Publish(ctx context.Context, id domain.BlogID, at time.Time) error
	Delete(ctx context.Context, id domain.BlogID) error
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

type Service struct {
	store          Store
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

func New(store Store, gate Authorizer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("blog store is required")
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

// Create saves a draft authored by the caller.
func (s *Service) Create(ctx context.Context, draft models.Draft) (*models.Blog, error) {
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpBlogCreate})
	if err != nil {
		return nil, err
	}
	b, err := models.NewBlog(caller.Email, draft, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, err
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, translate(err, "failed to create blog")
	}
	return b, nil
}

// Get returns a published post to anyone. Drafts are visible to their
// author, volunteers and admins; everyone else is told the post does not
// exist.
func (s *Service) Get(ctx context.Context, id domain.BlogID) (*models.Blog, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpBlogRead}); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.IsPublished() {
		return b, nil
	}
	_, err = s.gate.Authorize(ctx, policy.Action{Operation: policy.OpBlogReadDraft, OwnerEmail: b.AuthorEmail})
	switch {
	case err == nil:
		return b, nil
	case dErrors.HasCode(err, dErrors.CodeForbidden), dErrors.HasCode(err, dErrors.CodeUnauthorized):
		return nil, dErrors.New(dErrors.CodeNotFound, "blog not found")
	default:
		return nil, err
	}
}

// List shows published posts only.
func (s *Service) List(ctx context.Context, page domain.Page) ([]*models.Blog, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpBlogList}); err != nil {
		return nil, err
	}
	return s.list(ctx, models.Filter{Status: models.StatusPublished}, page)
}

// ListAll is the content management view including drafts.
func (s *Service) ListAll(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.Blog, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpBlogListAll}); err != nil {
		return nil, err
	}
	return s.list(ctx, filter, page)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpBlogCount}); err != nil {
		return 0, err
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, translate(err, "failed to count blogs")
	}
	return n, nil
}

// Update edits the content of a post. Status is not part of the write, so an
// edit racing a publish leaves the post published.
func (s *Service) Update(ctx context.Context, id domain.BlogID, draft models.Draft) (*models.Blog, error) {
	if _, err := s.gate.Admit(ctx, policy.OpBlogUpdate); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpBlogUpdate, OwnerEmail: b.AuthorEmail}); err != nil {
		if !b.IsPublished() && dErrors.HasCode(err, dErrors.CodeForbidden) {
			return nil, dErrors.New(dErrors.CodeNotFound, "blog not found")
		}
		return nil, err
	}
	b.Apply(draft, requestcontext.Now(ctx))
	if b.Title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title cannot be empty")
	}
	stored, err := s.store.UpdateContent(ctx, b)
	if err != nil {
		return nil, translate(err, "failed to update blog")
	}
	return stored, nil
}

// Publish is admin only; authors cannot publish their own drafts.
func (s *Service) Publish(ctx context.Context, id domain.BlogID) (*models.Blog, error) {
	if _, err := s.gate.Admit(ctx, policy.OpBlogPublish); err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpBlogPublish, OwnerEmail: b.AuthorEmail})
	if err != nil {
		return nil, err
	}
	if err := b.Publish(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Publish(ctx, id, b.UpdatedAt); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "only drafts can be published")
		}
		return nil, translate(err, "failed to publish blog")
	}
	s.emit(ctx, audit.Event{Action: audit.EventBlogPublished, Actor: caller.Email.String(), Subject: id.String()})
	return b, nil
}

func (s *Service) Delete(ctx context.Context, id domain.BlogID) error {
	if _, err := s.gate.Admit(ctx, policy.OpBlogDelete); err != nil {
		return err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	caller, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpBlogDelete, OwnerEmail: b.AuthorEmail})
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return translate(err, "failed to delete blog")
	}
	s.emit(ctx, audit.Event{Action: audit.EventBlogDeleted, Actor: caller.Email.String(), Subject: id.String()})
	return nil
}

func (s *Service) load(ctx context.Context, id domain.BlogID) (*models.Blog, error) {
	b, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load blog")
	}
	return b, nil
}

func (s *Service) list(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.Blog, error) {
	out, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, translate(err, "failed to list blogs")
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
		return dErrors.New(dErrors.CodeNotFound, "blog not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "blog already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeUpstreamFailure, msg)
	}
}
