package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/blogs/models"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/httputil"
)

type Service interface {
	Create(ctx context.Context, draft models.Draft) (*models.Blog, error)
	Get(ctx context.Context, id domain.BlogID) (*models.Blog, error)
	List(ctx context.Context, page domain.Page) ([]*models.Blog, error)
	ListAll(ctx context.Context, filter models.Filter, page domain.Page) ([]*models.Blog, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id domain.BlogID, draft models.Draft) (*models.Blog, error)
	Publish(ctx context.Context, id domain.BlogID) (*models.Blog, error)
	Delete(ctx context.Context, id domain.BlogID) error
}

type Handler struct {
	blogs  Service
	logger *slog.Logger
}

func New(blogs Service, logger *slog.Logger) *Handler {
	return &Handler{blogs: blogs, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/blogs", h.handleList)
	r.Get("/all-blogs", h.handleListAll)
	r.Get("/blogs-count", h.handleCount)
	r.Post("/blogs", h.handleCreate)
	r.Get("/blogs/{id}", h.handleGet)
	r.Put("/blogs/{id}", h.handleUpdate)
	r.Patch("/blogs/{id}/publish", h.handlePublish)
	r.Delete("/blogs/{id}", h.handleDelete)
}

type listResponse struct {
	Blogs []*models.Blog `json:"blogs"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

type countResponse struct {
	Count int `json:"count"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := domain.ParsePage(q.Get("page"), q.Get("size"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.blogs.List(r.Context(), page)
	if err != nil {
		httputil.Fail(w, r, h.logger, "list blogs", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Blogs: out, Page: page.Number, Size: page.Limit()})
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
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
	out, err := h.blogs.ListAll(r.Context(), filter, page)
	if err != nil {
		httputil.Fail(w, r, h.logger, "list all blogs", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Blogs: out, Page: page.Number, Size: page.Limit()})
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.blogs.Count(r.Context())
	if err != nil {
		httputil.Fail(w, r, h.logger, "count blogs", err)
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
	b, err := h.blogs.Create(r.Context(), draft)
	if err != nil {
		httputil.Fail(w, r, h.logger, "create blog", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBlogID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.blogs.Get(r.Context(), id)
	if err != nil {
		httputil.Fail(w, r, h.logger, "get blog", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBlogID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var draft models.Draft
	if err := httputil.DecodeJSON(r, &draft); err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.blogs.Update(r.Context(), id, draft)
	if err != nil {
		httputil.Fail(w, r, h.logger, "update blog", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBlogID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.blogs.Publish(r.Context(), id)
	if err != nil {
		httputil.Fail(w, r, h.logger, "publish blog", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseBlogID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.blogs.Delete(r.Context(), id); err != nil {
		httputil.Fail(w, r, h.logger, "delete blog", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
