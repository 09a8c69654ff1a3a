package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/donations/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/httputil"
)

// Service defines the donation request operations the handler exposes.
type Service interface {
	Create(ctx context.Context, draft models.Draft) (*models.DonationRequest, error)
	Get(ctx context.Context, id domain.DonationID) (*models.DonationRequest, error)
	List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error)
	ListMine(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error)
	ListAll(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id domain.DonationID, draft models.Draft) (*models.DonationRequest, error)
	Delete(ctx context.Context, id domain.DonationID) error
	Transition(ctx context.Context, id domain.DonationID, to models.Status) (*models.DonationRequest, error)
}

type Handler struct {
	donations Service
	logger    *slog.Logger
}

func New(donations Service, logger *slog.Logger) *Handler {
	return &Handler{donations: donations, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/donations", h.listWith(h.donations.List))
	r.Get("/my-donations", h.listWith(h.donations.ListMine))
	r.Get("/all-donations", h.listWith(h.donations.ListAll))
	r.Get("/donations-count", h.handleCount)
	r.Post("/donations", h.handleCreate)
	r.Get("/donations/{id}", h.handleGet)
	r.Put("/donations/{id}", h.handleUpdate)
	r.Delete("/donations/{id}", h.handleDelete)
	r.Patch("/donations/{id}/status", h.handleTransition)
}

type listResponse struct {
	Requests []*models.DonationRequest `json:"requests"`
	Page     int                       `json:"page"`
	Size     int                       `json:"size"`
}

type countResponse struct {
	Count int `json:"count"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type listFunc func(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.DonationRequest, error)

func (h *Handler) listWith(list listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := domain.ParsePage(q.Get("page"), q.Get("size"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		var filter models.Filter
		if s := q.Get("status"); s != "" {
			if filter.Status, err = models.ParseStatus(s); err != nil {
				httputil.WriteError(w, err)
				return
			}
		}
		out, err := list(r.Context(), filter, page)
		if err != nil {
			httputil.Fail(w, r, h.logger, "list donation requests", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, listResponse{Requests: out, Page: page.Number, Size: page.Limit()})
	}
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.donations.Count(r.Context())
	if err != nil {
		httputil.Fail(w, r, h.logger, "count donation requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var draft models.Draft
	if err := httputil.DecodeJSON(r, &draft); err != nil {
		httputil.WriteError(w, err)
		return
	}
	created, err := h.donations.Create(r.Context(), draft)
	if err != nil {
		httputil.Fail(w, r, h.logger, "create donation request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.donations.Get(r.Context(), id)
	if err != nil {
		httputil.Fail(w, r, h.logger, "get donation request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var draft models.Draft
	if err := httputil.DecodeJSON(r, &draft); err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.donations.Update(r.Context(), id, draft)
	if err != nil {
		httputil.Fail(w, r, h.logger, "update donation request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.donations.Delete(r.Context(), id); err != nil {
		httputil.Fail(w, r, h.logger, "delete donation request", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req transitionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.donations.Transition(r.Context(), id, to)
	if err != nil {
		httputil.Fail(w, r, h.logger, "change donation status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
