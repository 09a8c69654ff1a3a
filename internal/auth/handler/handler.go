package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/auth/service"
	"lifeline/pkg/platform/httputil"
)

// CookieName is the cookie the browser client stores its credential in.
const CookieName = "token"

type Service interface {
	Issue(ctx context.Context, email string) (*service.Session, error)
	Revoke(ctx context.Context) error
}

type Handler struct {
	auth         Service
	logger       *slog.Logger
	secureCookie bool
}

type Option func(*Handler)

// WithSecureCookie marks the credential cookie Secure with SameSite=None,
// for cross-site frontends served over TLS.
func WithSecureCookie(secure bool) Option {
	return func(h *Handler) {
		h.secureCookie = secure
	}
}

func New(auth Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{auth: auth, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/jwt", h.handleIssue)
	r.Get("/logout", h.handleLogout)
}

type issueRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type logoutResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	session, err := h.auth.Issue(r.Context(), req.Email)
	if err != nil {
		httputil.Fail(w, r, h.logger, "issue token", err)
		return
	}
	cookie := h.cookie(session.Token)
	cookie.Expires = session.ExpiresAt
	http.SetCookie(w, cookie)
	httputil.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Revoke(r.Context()); err != nil {
		httputil.Fail(w, r, h.logger, "revoke token", err)
		return
	}
	cookie := h.cookie("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
	httputil.WriteJSON(w, http.StatusOK, logoutResponse{Success: true})
}

func (h *Handler) cookie(value string) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if h.secureCookie {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}
