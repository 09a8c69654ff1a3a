package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusDraft, StatusPublished:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be draft or published")
}

// Blog is a post written by any member. Publication is one-way.
type Blog struct {
	ID          domain.BlogID `json:"id"`
	AuthorEmail domain.Email  `json:"author_email"`
	Title       string        `json:"title"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	Content     string        `json:"content"`
	Status      Status        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Draft struct {
	Title     string `json:"title" validate:"required,max=256"`
	Thumbnail string `json:"thumbnail" validate:"omitempty,url,max=2048"`
	Content   string `json:"content" validate:"required"`
}

func NewBlog(author domain.Email, d Draft, now time.Time) (*Blog, error) {
	if author == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "author email cannot be empty")
	}
	if strings.TrimSpace(d.Title) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "title cannot be empty")
	}
	return &Blog{
		ID:          domain.BlogID(uuid.New()),
		AuthorEmail: author,
		Title:       strings.TrimSpace(d.Title),
		Thumbnail:   d.Thumbnail,
		Content:     d.Content,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (b *Blog) Apply(d Draft, now time.Time) {
	b.Title = strings.TrimSpace(d.Title)
	b.Thumbnail = d.Thumbnail
	b.Content = d.Content
	b.UpdatedAt = now
}

func (b *Blog) IsPublished() bool {
	return b.Status == StatusPublished
}

// Publish moves a draft to published.
func (b *Blog) Publish(now time.Time) error {
	if b.Status != StatusDraft {
		return dErrors.New(dErrors.CodeInvalidTransition, "only drafts can be published")
	}
	b.Status = StatusPublished
	b.UpdatedAt = now
	return nil
}

type Filter struct {
	Status Status
}

func (f Filter) Matches(b *Blog) bool {
	return f.Status == "" || b.Status == f.Status
}
