package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/users/models"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/httputil"
)

// Service defines the directory operations the handler exposes.
type Service interface {
	Register(ctx context.Context, email string, profile models.Profile) (*models.User, bool, error)
	Get(ctx context.Context, email domain.Email) (*models.User, error)
	List(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, email domain.Email, profile models.Profile) (*models.User, error)
	SetRole(ctx context.Context, email domain.Email, role models.Role) (*models.User, error)
	SetStatus(ctx context.Context, email domain.Email, status models.Status) (*models.User, error)
}

// Handler serves the user directory endpoints.
type Handler struct {
	users  Service
	logger *slog.Logger
}

func New(users Service, logger *slog.Logger) *Handler {
	return &Handler{users: users, logger: logger}
}

// Register mounts the directory routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/users", h.handleRegister)
	r.Get("/users", h.handleList)
	r.Get("/users-count", h.handleCount)
	r.Get("/users/{email}", h.handleGet)
	r.Patch("/users/{email}", h.handleUpdateProfile)
	r.Get("/users/{email}/role", h.handleGetRole)
	r.Patch("/users/{email}/role", h.handleSetRole)
	r.Patch("/users/{email}/status", h.handleSetStatus)
}

type registerRequest struct {
	Email string `json:"email" validate:"required,email"`
	models.Profile
}

type registerResponse struct {
	Created bool         `json:"created"`
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user"`
}

type listResponse struct {
	Users []*models.User `json:"users"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

type countResponse struct {
	Count int `json:"count"`
}

type roleResponse struct {
	Role   models.Role   `json:"role"`
	Status models.Status `json:"status"`
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, created, err := h.users.Register(r.Context(), req.Email, req.Profile)
	if err != nil {
		httputil.Fail(w, r, h.logger, "register user", err)
		return
	}
	if !created {
		httputil.WriteJSON(w, http.StatusOK, registerResponse{Message: "user already exists", User: user})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registerResponse{Created: true, User: user})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
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
	users, err := h.users.List(r.Context(), filter, page)
	if err != nil {
		httputil.Fail(w, r, h.logger, "list users", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Users: users, Page: page.Number, Size: page.Limit()})
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.users.Count(r.Context())
	if err != nil {
		httputil.Fail(w, r, h.logger, "count users", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	email, err := emailParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.users.Get(r.Context(), email)
	if err != nil {
		httputil.Fail(w, r, h.logger, "get user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleGetRole(w http.ResponseWriter, r *http.Request) {
	email, err := emailParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.users.Get(r.Context(), email)
	if err != nil {
		httputil.Fail(w, r, h.logger, "get user role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, roleResponse{Role: user.Role, Status: user.Status})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	email, err := emailParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var profile models.Profile
	if err := httputil.DecodeJSON(r, &profile); err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), email, profile)
	if err != nil {
		httputil.Fail(w, r, h.logger, "update profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	email, err := emailParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req setRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.users.SetRole(r.Context(), email, role)
	if err != nil {
		httputil.Fail(w, r, h.logger, "set role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	email, err := emailParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req setStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.users.SetStatus(r.Context(), email, status)
	if err != nil {
		httputil.Fail(w, r, h.logger, "set status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func emailParam(r *http.Request) (domain.Email, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid email in path")
	}
	return domain.ParseEmail(raw)
}
