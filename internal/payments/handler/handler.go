package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/payments/models"
	"lifeline/internal/payments/service"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/httputil"
)

type Service interface {
	CreateIntent(ctx context.Context, req service.IntentRequest) (*models.Intent, error)
	Record(ctx context.Context, req service.RecordRequest) (*models.Payment, bool, error)
	List(ctx context.Context, page domain.Page) ([]*models.Payment, error)
	ListMine(ctx context.Context, page domain.Page) ([]*models.Payment, error)
}

type Handler struct {
	payments Service
	logger   *slog.Logger
}

func New(payments Service, logger *slog.Logger) *Handler {
	return &Handler{payments: payments, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/create-payment-intent", h.handleCreateIntent)
	r.Post("/payments", h.handleRecord)
	r.Get("/payments", h.listWith(h.payments.List))
	r.Get("/my-payments", h.listWith(h.payments.ListMine))
}

type intentResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}

type recordResponse struct {
	Created bool            `json:"created"`
	Payment *models.Payment `json:"payment"`
}

type listResponse struct {
	Payments []*models.Payment `json:"payments"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
}

func (h *Handler) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req service.IntentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	intent, err := h.payments.CreateIntent(r.Context(), req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "create payment intent", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, intentResponse{IntentID: intent.ID, ClientSecret: intent.ClientSecret})
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req service.RecordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, created, err := h.payments.Record(r.Context(), req)
	if err != nil {
		httputil.Fail(w, r, h.logger, "record payment", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, recordResponse{Created: created, Payment: p})
}

type listFunc func(ctx context.Context, page domain.Page) ([]*models.Payment, error)

func (h *Handler) listWith(list listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := domain.ParsePage(q.Get("page"), q.Get("size"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		out, err := list(r.Context(), page)
		if err != nil {
			httputil.Fail(w, r, h.logger, "list payments", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, listResponse{Payments: out, Page: page.Number, Size: page.Limit()})
	}
}
