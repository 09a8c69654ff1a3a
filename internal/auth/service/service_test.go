package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lifeline/internal/audit"
	"lifeline/internal/policy"
	"lifeline/internal/token"
	"lifeline/internal/token/revocation"
	userModels "lifeline/internal/users/models"
	userStore "lifeline/internal/users/store"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/requestcontext"
)

type AuthServiceSuite struct {
	suite.Suite
	now     time.Time
	users   *userStore.InMemory
	tokens  *token.Service
	trl     *revocation.InMemoryTRL
	gate    *policy.Gate
	events  *audit.Publisher
	service *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.now = time.Now().Truncate(time.Second)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.users = userStore.NewInMemory()
	s.tokens = token.NewService("test-signing-key", "lifeline-test",
		token.WithTTL(time.Hour),
		token.WithClock(func() time.Time { return s.now }),
	)
	s.trl = revocation.NewInMemoryTRL()
	s.gate = policy.NewGate(s.users, policy.WithLogger(logger))
	s.events = audit.NewPublisher(8)
	svc, err := New(s.users, s.tokens, s.trl, s.gate,
		WithLogger(logger),
		WithAuditPublisher(s.events),
	)
	s.Require().NoError(err)
	s.service = svc

	name := "Ana"
	u, err := userModels.NewUser("ana@example.com", userModels.Profile{Name: &name}, s.now)
	s.Require().NoError(err)
	_, _, err = s.users.CreateIfAbsent(context.Background(), u)
	s.Require().NoError(err)
}

func (s *AuthServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *AuthServiceSuite) TestNewRequiresDependencies() {
	_, err := New(nil, s.tokens, s.trl, s.gate)
	s.Error(err)
	_, err = New(s.users, nil, s.trl, s.gate)
	s.Error(err)
	_, err = New(s.users, s.tokens, nil, s.gate)
	s.Error(err)
	_, err = New(s.users, s.tokens, s.trl, nil)
	s.Error(err)
}

func (s *AuthServiceSuite) TestIssueEmbedsDirectorySnapshot() {
	session, err := s.service.Issue(s.ctx(), "  ANA@example.com ")
	s.Require().NoError(err)
	s.Equal(s.now.Add(time.Hour), session.ExpiresAt)

	claims, err := s.tokens.Verify(session.Token)
	s.Require().NoError(err)
	s.Equal("ana@example.com", claims.Email)
	s.Equal("Ana", claims.Name)
	s.Equal(string(userModels.RoleDonor), claims.Role)
	s.Equal(string(userModels.StatusActive), claims.Status)
}

func (s *AuthServiceSuite) TestIssueRejectsUnknownAndMalformedEmails() {
	_, err := s.service.Issue(s.ctx(), "nobody@example.com")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.Issue(s.ctx(), "not-an-email")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AuthServiceSuite) TestPromotedDonorKeepsStaleClaimsButGainsAccess() {
	session, err := s.service.Issue(s.ctx(), "ana@example.com")
	s.Require().NoError(err)

	_, err = s.users.SetRole(context.Background(), "ana@example.com", userModels.RoleAdmin, time.Now())
	s.Require().NoError(err)

	claims, err := s.tokens.Verify(session.Token)
	s.Require().NoError(err)
	s.Equal(string(userModels.RoleDonor), claims.Role)

	caller, err := s.gate.Check(s.ctx(), claims, policy.Action{Operation: policy.OpStatsRead})
	s.Require().NoError(err)
	s.Equal(userModels.RoleAdmin, caller.Role)
}

func (s *AuthServiceSuite) TestRevoke() {
	session, err := s.service.Issue(s.ctx(), "ana@example.com")
	s.Require().NoError(err)
	claims, err := s.tokens.Verify(session.Token)
	s.Require().NoError(err)

	s.Run("requires a credential", func() {
		s.True(dErrors.HasCode(s.service.Revoke(s.ctx()), dErrors.CodeUnauthorized))
	})

	s.Run("lists the token id until expiry", func() {
		s.Require().NoError(s.service.Revoke(token.WithClaims(s.ctx(), claims)))

		revoked, err := s.trl.IsRevoked(context.Background(), claims.ID)
		s.Require().NoError(err)
		s.True(revoked)

		ev := <-s.events.Inbox()
		s.Equal(audit.EventTokenRevoked, ev.Action)
		s.Equal("ana@example.com", ev.Actor)
		s.Equal(claims.ID, ev.Subject)
	})
}

type failingTRL struct{}

func (failingTRL) RevokeToken(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (s *AuthServiceSuite) TestRevokeListFailure() {
	svc, err := New(s.users, s.tokens, failingTRL{}, s.gate)
	s.Require().NoError(err)
	session, err := svc.Issue(s.ctx(), "ana@example.com")
	s.Require().NoError(err)
	claims, err := s.tokens.Verify(session.Token)
	s.Require().NoError(err)

	err = svc.Revoke(token.WithClaims(s.ctx(), claims))
	s.True(dErrors.HasCode(err, dErrors.CodeUpstreamFailure))
}
