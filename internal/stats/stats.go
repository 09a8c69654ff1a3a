// Package stats serves the admin dashboard totals.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"lifeline/internal/policy"
	userModels "lifeline/internal/users/models"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/httputil"
)

type Authorizer interface {
	Authorize(ctx context.Context, action policy.Action) (*userModels.User, error)
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Ledger is the payment store view: record count plus the amount sum.
type Ledger interface {
	Counter
	Total(ctx context.Context) (int64, error)
}

// Totals is the dashboard summary. Funding is in minor currency units.
type Totals struct {
	Users     int   `json:"users"`
	Donations int   `json:"donation_requests"`
	Payments  int   `json:"payments"`
	Funding   int64 `json:"funding"`
}

type Service struct {
	gate      Authorizer
	users     Counter
	donations Counter
	payments  Ledger
}

func NewService(gate Authorizer, users, donations Counter, payments Ledger) *Service {
	return &Service{gate: gate, users: users, donations: donations, payments: payments}
}

// Totals reads every counter concurrently; the first failure cancels the rest.
func (s *Service) Totals(ctx context.Context) (*Totals, error) {
	if _, err := s.gate.Authorize(ctx, policy.Action{Operation: policy.OpStatsRead}); err != nil {
		return nil, err
	}
	var out Totals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Users, err = s.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Donations, err = s.donations.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Payments, err = s.payments.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.Funding, err = s.payments.Total(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamFailure, "failed to compute totals")
	}
	return &out, nil
}

type Handler struct {
	stats  *Service
	logger *slog.Logger
}

func NewHandler(stats *Service, logger *slog.Logger) *Handler {
	return &Handler{stats: stats, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin-stats", h.handleTotals)
}

func (h *Handler) handleTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.stats.Totals(r.Context())
	if err != nil {
		httputil.Fail(w, r, h.logger, "read admin stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, totals)
}
