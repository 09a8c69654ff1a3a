package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"lifeline/internal/audit"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/policy"
	"lifeline/internal/token"
	"lifeline/internal/users/models"
	"lifeline/internal/users/store"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/requestcontext"
)

// The directory is exercised against the in-memory store and the real gate,
// so every test also checks the authorization wiring.
type UserServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	events  *recorder
	metrics *metrics.Metrics
	service *Service
}

type recorder struct {
	events []audit.Event
}

func (r *recorder) Emit(_ context.Context, e audit.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) actions() []audit.EventType {
	out := make([]audit.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.events = &recorder{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := policy.NewGate(s.store, policy.WithLogger(logger))
	svc, err := New(s.store, gate,
		WithLogger(logger),
		WithMetrics(s.metrics),
		WithAuditPublisher(s.events),
	)
	s.Require().NoError(err)
	s.service = svc
}

func name(n string) *string { return &n }

func (s *UserServiceSuite) as(email string) context.Context {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	if email == "" {
		return ctx
	}
	return token.WithClaims(ctx, &token.Claims{Email: email, Role: string(models.RoleDonor)})
}

func (s *UserServiceSuite) seed(email string, role models.Role) {
	_, _, err := s.service.Register(s.as(""), email, models.Profile{Name: name("Seed")})
	s.Require().NoError(err)
	if role != models.RoleDonor {
		_, err := s.store.SetRole(context.Background(), domain.Email(email), role, time.Now())
		s.Require().NoError(err)
	}
}

func (s *UserServiceSuite) TestNewRequiresDependencies() {
	_, err := New(nil, policy.NewGate(s.store))
	s.Error(err)
	_, err = New(s.store, nil)
	s.Error(err)
}

func (s *UserServiceSuite) TestRegisterIsIdempotent() {
	u, created, err := s.service.Register(s.as(""), " Ana@Example.com ", models.Profile{Name: name("Ana")})
	s.Require().NoError(err)
	s.True(created)
	s.Equal(domain.Email("ana@example.com"), u.Email)
	s.Equal(models.RoleDonor, u.Role)
	s.Equal(models.StatusActive, u.Status)

	again, created, err := s.service.Register(s.as(""), "ana@example.com", models.Profile{Name: name("Someone Else")})
	s.Require().NoError(err)
	s.False(created)
	s.Equal(u.ID, again.ID)
	s.Equal("Ana", again.Name)

	n, err := s.store.Count(context.Background())
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.UsersRegistered))
	s.Equal([]audit.EventType{audit.EventUserRegistered}, s.events.actions())
}

func (s *UserServiceSuite) TestRegisterValidation() {
	_, _, err := s.service.Register(s.as(""), "not-an-email", models.Profile{Name: name("X")})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, _, err = s.service.Register(s.as(""), "x@example.com", models.Profile{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *UserServiceSuite) TestGetOwnerOrAdmin() {
	s.seed("ana@example.com", models.RoleDonor)
	s.seed("ben@example.com", models.RoleDonor)
	s.seed("root@example.com", models.RoleAdmin)

	_, err := s.service.Get(s.as("ana@example.com"), "ana@example.com")
	s.NoError(err)

	_, err = s.service.Get(s.as("ben@example.com"), "ana@example.com")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Get(s.as("root@example.com"), "ana@example.com")
	s.NoError(err)

	_, err = s.service.Get(s.as("root@example.com"), "ghost@example.com")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Get(s.as(""), "ana@example.com")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *UserServiceSuite) TestListFiltersAndPages() {
	s.seed("root@example.com", models.RoleAdmin)
	for _, e := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		s.seed(e, models.RoleDonor)
	}
	_, err := s.service.SetStatus(s.as("root@example.com"), "b@example.com", models.StatusBlocked)
	s.Require().NoError(err)

	blocked, err := s.service.List(s.as("root@example.com"), models.Filter{Status: models.StatusBlocked}, domain.FirstPage())
	s.Require().NoError(err)
	s.Require().Len(blocked, 1)
	s.Equal(domain.Email("b@example.com"), blocked[0].Email)

	page2, err := s.service.List(s.as("root@example.com"), models.Filter{}, domain.Page{Number: 2, Size: 3})
	s.Require().NoError(err)
	s.Len(page2, 1)

	n, err := s.service.Count(s.as("root@example.com"))
	s.Require().NoError(err)
	s.Equal(4, n)

	_, err = s.service.List(s.as("a@example.com"), models.Filter{}, domain.FirstPage())
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *UserServiceSuite) TestUpdateProfileKeepsRoleAndStatus() {
	s.seed("ana@example.com", models.RoleDonor)

	u, err := s.service.UpdateProfile(s.as("ana@example.com"), "ana@example.com", models.Profile{
		Name:     name("Ana Maria"),
		District: name("Dhaka"),
	})
	s.Require().NoError(err)
	s.Equal("Ana Maria", u.Name)
	s.Equal("Dhaka", u.District)
	s.Equal(models.RoleDonor, u.Role)

	_, err = s.service.UpdateProfile(s.as("ana@example.com"), "ana@example.com", models.Profile{Name: name("  ")})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *UserServiceSuite) TestSetRoleAdminOnly() {
	s.seed("ana@example.com", models.RoleDonor)
	s.seed("vol@example.com", models.RoleVolunteer)
	s.seed("root@example.com", models.RoleAdmin)

	_, err := s.service.SetRole(s.as("vol@example.com"), "ana@example.com", models.RoleVolunteer)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	u, err := s.service.SetRole(s.as("root@example.com"), "ana@example.com", models.RoleVolunteer)
	s.Require().NoError(err)
	s.Equal(models.RoleVolunteer, u.Role)
	s.Contains(s.events.actions(), audit.EventRoleChanged)
}

// A credential minted while the caller was a donor keeps saying donor, but
// the gate reads the directory, so the promotion takes effect immediately.
func (s *UserServiceSuite) TestPromotionHonouredDespiteStaleCredential() {
	s.seed("ana@example.com", models.RoleDonor)
	s.seed("ben@example.com", models.RoleDonor)
	s.seed("root@example.com", models.RoleAdmin)

	stale := s.as("ana@example.com")
	s.Equal(string(models.RoleDonor), token.FromContext(stale).Role)

	_, err := s.service.SetRole(s.as("root@example.com"), "ana@example.com", models.RoleAdmin)
	s.Require().NoError(err)

	u, err := s.service.SetStatus(stale, "ben@example.com", models.StatusBlocked)
	s.Require().NoError(err)
	s.Equal(models.StatusBlocked, u.Status)
}

func (s *UserServiceSuite) TestBlockedCallerCannotMutate() {
	s.seed("ana@example.com", models.RoleDonor)
	s.seed("root@example.com", models.RoleAdmin)
	_, err := s.service.SetStatus(s.as("root@example.com"), "ana@example.com", models.StatusBlocked)
	s.Require().NoError(err)

	_, err = s.service.UpdateProfile(s.as("ana@example.com"), "ana@example.com", models.Profile{Name: name("New")})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Get(s.as("ana@example.com"), "ana@example.com")
	s.NoError(err)
}

// blockingAdminStore lands an admin block after the service has decided to
// edit the profile and before the profile write reaches the directory.
type blockingAdminStore struct {
	*store.InMemory
}

func (b blockingAdminStore) UpdateProfile(ctx context.Context, email domain.Email, p models.Profile, at time.Time) (*models.User, error) {
	if _, err := b.InMemory.SetStatus(ctx, email, models.StatusBlocked, at); err != nil {
		return nil, err
	}
	return b.InMemory.UpdateProfile(ctx, email, p, at)
}

func (s *UserServiceSuite) TestConcurrentBlockSurvivesProfileEdit() {
	s.seed("ana@example.com", models.RoleVolunteer)
	svc, err := New(blockingAdminStore{s.store}, policy.NewGate(s.store))
	s.Require().NoError(err)

	u, err := svc.UpdateProfile(s.as("ana@example.com"), "ana@example.com", models.Profile{Name: name("Ana Maria")})
	s.Require().NoError(err)
	s.Equal("Ana Maria", u.Name)
	s.Equal(models.StatusBlocked, u.Status)

	stored, err := s.store.FindByEmail(context.Background(), "ana@example.com")
	s.Require().NoError(err)
	s.True(stored.IsBlocked())
	s.Equal(models.RoleVolunteer, stored.Role)
}

type failingStore struct {
	*store.InMemory
}

func (failingStore) List(context.Context, models.Filter, domain.Page) ([]*models.User, error) {
	return nil, errors.New("connection reset")
}

func (s *UserServiceSuite) TestStoreFailureIsUpstream() {
	s.seed("root@example.com", models.RoleAdmin)
	svc, err := New(failingStore{s.store}, policy.NewGate(s.store))
	s.Require().NoError(err)

	_, err = svc.List(s.as("root@example.com"), models.Filter{}, domain.FirstPage())
	s.True(dErrors.HasCode(err, dErrors.CodeUpstreamFailure))
}
