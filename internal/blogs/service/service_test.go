package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lifeline/internal/audit"
	"lifeline/internal/blogs/models"
	"lifeline/internal/blogs/store"
	"lifeline/internal/policy"
	"lifeline/internal/token"
	userModels "lifeline/internal/users/models"
	userStore "lifeline/internal/users/store"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/requestcontext"
)

type BlogServiceSuite struct {
	suite.Suite
	users   *userStore.InMemory
	blogs   *store.InMemory
	events  *audit.Publisher
	service *Service
	clock   time.Time
}

func TestBlogServiceSuite(t *testing.T) {
	suite.Run(t, new(BlogServiceSuite))
}

func (s *BlogServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.users = userStore.NewInMemory()
	s.blogs = store.NewInMemory()
	s.events = audit.NewPublisher(16)
	s.clock = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	svc, err := New(s.blogs, policy.NewGate(s.users, policy.WithLogger(logger)),
		WithLogger(logger), WithAuditPublisher(s.events))
	s.Require().NoError(err)
	s.service = svc

	for email, role := range map[string]userModels.Role{
		"ana@example.com":  userModels.RoleDonor,
		"ben@example.com":  userModels.RoleDonor,
		"vol@example.com":  userModels.RoleVolunteer,
		"root@example.com": userModels.RoleAdmin,
	} {
		name := email
		u, err := userModels.NewUser(domain.Email(email), userModels.Profile{Name: &name}, s.clock)
		s.Require().NoError(err)
		u.Role = role
		_, _, err = s.users.CreateIfAbsent(context.Background(), u)
		s.Require().NoError(err)
	}
}

func (s *BlogServiceSuite) as(email string) context.Context {
	s.clock = s.clock.Add(time.Minute)
	ctx := requestcontext.WithTime(context.Background(), s.clock)
	if email == "" {
		return ctx
	}
	return token.WithClaims(ctx, &token.Claims{Email: email})
}

func (s *BlogServiceSuite) draft(author string) *models.Blog {
	b, err := s.service.Create(s.as(author), models.Draft{Title: "Giving blood", Content: "Every drop counts"})
	s.Require().NoError(err)
	return b
}

func (s *BlogServiceSuite) TestOnlyAdminPublishes() {
	b := s.draft("ana@example.com")
	s.Equal(models.StatusDraft, b.Status)

	for _, caller := range []string{"ana@example.com", "ben@example.com", "vol@example.com"} {
		_, err := s.service.Publish(s.as(caller), b.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), caller)
	}
	_, err := s.service.Publish(s.as(""), b.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	published, err := s.service.Publish(s.as("root@example.com"), b.ID)
	s.Require().NoError(err)
	s.True(published.IsPublished())
	s.Equal(audit.EventBlogPublished, (<-s.events.Inbox()).Action)

	_, err = s.service.Publish(s.as("root@example.com"), b.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *BlogServiceSuite) TestDraftsHiddenFromPublic() {
	b := s.draft("ana@example.com")

	_, err := s.service.Get(s.as(""), b.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.Get(s.as("ben@example.com"), b.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	for _, caller := range []string{"ana@example.com", "vol@example.com", "root@example.com"} {
		_, err = s.service.Get(s.as(caller), b.ID)
		s.NoError(err, caller)
	}

	list, err := s.service.List(s.as(""), domain.FirstPage())
	s.Require().NoError(err)
	s.Empty(list)

	n, err := s.service.Count(s.as(""))
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *BlogServiceSuite) TestUpdateByAuthorOrVolunteer() {
	b := s.draft("ana@example.com")
	edit := models.Draft{Title: "Edited", Content: "new"}

	_, err := s.service.Update(s.as("ben@example.com"), b.ID, edit)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "a foreign draft is hidden")

	got, err := s.service.Update(s.as("ana@example.com"), b.ID, edit)
	s.Require().NoError(err)
	s.Equal("Edited", got.Title)

	_, err = s.service.Update(s.as("vol@example.com"), b.ID, edit)
	s.NoError(err)

	_, err = s.service.Publish(s.as("root@example.com"), b.ID)
	s.Require().NoError(err)
	_, err = s.service.Update(s.as("ben@example.com"), b.ID, edit)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "a published post is not hidden")
}

func (s *BlogServiceSuite) TestMissingPostChecksCallerFirst() {
	missing := domain.BlogID(uuid.New())
	edit := models.Draft{Title: "Edited", Content: "new"}

	_, err := s.service.Update(s.as(""), missing, edit)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.service.Publish(s.as("ana@example.com"), missing)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.True(dErrors.HasCode(s.service.Delete(s.as("vol@example.com"), missing), dErrors.CodeForbidden))

	_, err = s.service.Update(s.as("ana@example.com"), missing, edit)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// publishingStore lands an admin publish between the author's load and the
// content write.
type publishingStore struct {
	*store.InMemory
}

func (p publishingStore) UpdateContent(ctx context.Context, b *models.Blog) (*models.Blog, error) {
	if err := p.InMemory.Publish(ctx, b.ID, b.UpdatedAt); err != nil {
		return nil, err
	}
	return p.InMemory.UpdateContent(ctx, b)
}

func (s *BlogServiceSuite) TestEditRacingPublishKeepsPostPublished() {
	b := s.draft("ana@example.com")
	svc, err := New(publishingStore{s.blogs}, policy.NewGate(s.users))
	s.Require().NoError(err)

	got, err := svc.Update(s.as("ana@example.com"), b.ID, models.Draft{Title: "Edited", Content: "new"})
	s.Require().NoError(err)
	s.Equal("Edited", got.Title)
	s.True(got.IsPublished())

	stored, err := s.blogs.FindByID(context.Background(), b.ID)
	s.Require().NoError(err)
	s.True(stored.IsPublished())
}

// staleReadStore returns the post as loaded, then lets another admin publish
// it before the caller's own write.
type staleReadStore struct {
	*store.InMemory
}

func (r staleReadStore) FindByID(ctx context.Context, id domain.BlogID) (*models.Blog, error) {
	b, err := r.InMemory.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.InMemory.Publish(ctx, id, b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BlogServiceSuite) TestConcurrentPublishIsInvalidTransition() {
	b := s.draft("ana@example.com")
	svc, err := New(staleReadStore{s.blogs}, policy.NewGate(s.users))
	s.Require().NoError(err)

	_, err = svc.Publish(s.as("root@example.com"), b.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *BlogServiceSuite) TestDeleteAdminOnly() {
	b := s.draft("ana@example.com")
	s.True(dErrors.HasCode(s.service.Delete(s.as("ana@example.com"), b.ID), dErrors.CodeForbidden))
	s.NoError(s.service.Delete(s.as("root@example.com"), b.ID))
	s.True(dErrors.HasCode(s.service.Delete(s.as("root@example.com"), b.ID), dErrors.CodeNotFound))
}

func (s *BlogServiceSuite) TestListAllIncludesDrafts() {
	s.draft("ana@example.com")
	published := s.draft("ben@example.com")
	_, err := s.service.Publish(s.as("root@example.com"), published.ID)
	s.Require().NoError(err)

	all, err := s.service.ListAll(s.as("vol@example.com"), models.Filter{}, domain.FirstPage())
	s.Require().NoError(err)
	s.Len(all, 2)

	drafts, err := s.service.ListAll(s.as("vol@example.com"), models.Filter{Status: models.StatusDraft}, domain.FirstPage())
	s.Require().NoError(err)
	s.Len(drafts, 1)

	_, err = s.service.ListAll(s.as("ana@example.com"), models.Filter{}, domain.FirstPage())
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
