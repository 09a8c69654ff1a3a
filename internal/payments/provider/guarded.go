package provider

import (
	"context"
	"log/slog"

	"lifeline/internal/payments/models"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/circuit"
)

// IntentProvider is the processor surface the guard wraps.
type IntentProvider interface {
	CreateIntent(ctx context.Context, amount int64, currency, receiptEmail string) (*models.Intent, error)
	IntentStatus(ctx context.Context, id string) (*models.IntentState, error)
}

// Guarded fails fast while the processor keeps returning upstream failures.
// Client errors such as an unknown intent do not trip the breaker.
type Guarded struct {
	next    IntentProvider
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(next IntentProvider, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) CreateIntent(ctx context.Context, amount int64, currency, receiptEmail string) (*models.Intent, error) {
	if !g.breaker.Allow() {
		return nil, g.unavailable()
	}
	intent, err := g.next.CreateIntent(ctx, amount, currency, receiptEmail)
	g.record(ctx, err)
	return intent, err
}

func (g *Guarded) IntentStatus(ctx context.Context, id string) (*models.IntentState, error) {
	if !g.breaker.Allow() {
		return nil, g.unavailable()
	}
	state, err := g.next.IntentStatus(ctx, id)
	g.record(ctx, err)
	return state, err
}

func (g *Guarded) record(ctx context.Context, err error) {
	if err != nil && dErrors.HasCode(err, dErrors.CodeUpstreamFailure) {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "payment provider circuit opened", "breaker", g.breaker.Name(), "error", err)
		}
		return
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "payment provider circuit closed", "breaker", g.breaker.Name())
	}
}

func (g *Guarded) unavailable() error {
	return dErrors.New(dErrors.CodeUpstreamFailure, "payment provider is temporarily unavailable")
}
