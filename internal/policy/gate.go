package policy

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lifeline/internal/audit"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/token"
	"lifeline/internal/users/models"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
)

// Directory is the fresh identity lookup the gate consults on every call.
type Directory interface {
	FindByEmail(ctx context.Context, email domain.Email) (*models.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

var tracer = otel.Tracer("lifeline/policy")

// Gate authorizes actions against Rules.
type Gate struct {
	directory Directory
	logger    *slog.Logger
	metrics   *metrics.Metrics
	auditor   AuditPublisher
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) {
		g.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(g *Gate) {
		g.auditor = p
	}
}

func NewGate(directory Directory, opts ...Option) *Gate {
	g := &Gate{directory: directory, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize checks action for the caller whose claims are on ctx.
func (g *Gate) Authorize(ctx context.Context, action Action) (*models.User, error) {
	return g.Check(ctx, token.FromContext(ctx), action)
}

// Check returns the freshly loaded caller when action is allowed. For public
// operations the caller is nil. Denials carry CodeUnauthorized or
// CodeForbidden; a failed lookup carries CodeUpstreamFailure.
func (g *Gate) Check(ctx context.Context, claims *token.Claims, action Action) (*models.User, error) {
	return g.check(ctx, claims, action, false)
}

// Admit runs the checks for op that do not depend on the resource: identity,
// block status and role. Ownership is assumed, so a later Authorize naming
// the real owner is still required for owner-scoped operations. Services call
// it before loading a resource, so callers who could never perform op do not
// learn whether the resource exists.
func (g *Gate) Admit(ctx context.Context, op Operation) (*models.User, error) {
	return g.check(ctx, token.FromContext(ctx), Action{Operation: op}, true)
}

func (g *Gate) check(ctx context.Context, claims *token.Claims, action Action, assumeOwner bool) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "policy.check",
		trace.WithAttributes(
			attribute.String("policy.operation", string(action.Operation)),
			attribute.Bool("policy.admit", assumeOwner),
		))
	defer span.End()

	rule := RuleFor(action.Operation)
	if rule.Public {
		g.observe(ctx, action, "allow", ReasonPublic)
		return nil, nil
	}
	if claims == nil || claims.Email == "" {
		g.observe(ctx, action, "unauthenticated", ReasonNoCredentials)
		span.SetStatus(codes.Error, string(ReasonNoCredentials))
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	email := domain.NormalizeEmail(claims.Email)
	caller, err := g.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			g.denied(ctx, action, email, ReasonUnknownCaller)
			span.SetStatus(codes.Error, string(ReasonUnknownCaller))
			return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
		}
		g.observe(ctx, action, "upstream_failure", ReasonLookupFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(ReasonLookupFailed))
		g.logger.ErrorContext(ctx, "caller lookup failed",
			"operation", action.Operation,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamFailure, "failed to load caller")
	}

	owner := action.OwnerEmail
	if assumeOwner {
		owner = caller.Email
	}
	outcome := Evaluate(rule, caller, owner)
	span.SetAttributes(attribute.String("policy.reason", string(outcome.Reason)))
	if !outcome.Allowed {
		g.denied(ctx, action, email, outcome.Reason)
		span.SetStatus(codes.Error, string(outcome.Reason))
		if outcome.Reason == ReasonBlocked {
			return nil, dErrors.New(dErrors.CodeForbidden, "account is blocked")
		}
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}
	g.observe(ctx, action, "allow", outcome.Reason)
	return caller, nil
}

func (g *Gate) denied(ctx context.Context, action Action, caller domain.Email, reason Reason) {
	g.observe(ctx, action, "forbidden", reason)
	if g.auditor == nil {
		return
	}
	err := g.auditor.Emit(ctx, audit.Event{
		Action:   audit.EventAccessDenied,
		Actor:    caller.String(),
		Subject:  string(action.Operation),
		Decision: "deny",
		Reason:   string(reason),
	})
	if err != nil {
		g.logger.WarnContext(ctx, "failed to emit audit event", "error", err)
	}
}

func (g *Gate) observe(ctx context.Context, action Action, outcome string, reason Reason) {
	g.metrics.ObserveGateDecision(string(action.Operation), outcome)
	g.logger.DebugContext(ctx, "policy decision",
		"operation", action.Operation,
		"outcome", outcome,
		"reason", reason,
	)
}
