package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// Role is the privilege tier of an identity.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleDonor, RoleVolunteer, RoleAdmin:
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "role must be one of donor, volunteer, admin")
}

// Status gates every non-read operation: blocked identities may only read.
type Status string

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

// ParseStatus validates a status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusActive, StatusBlocked:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be active or blocked")
}

// User is one identity in the directory.
//
// Invariants:
//   - Email is normalized and unique across the directory
//   - Role and Status are always one of their enum values
//   - Users are never deleted; blocking replaces deletion
type User struct {
	ID         domain.UserID `json:"id"`
	Email      domain.Email  `json:"email"`
	Name       string        `json:"name"`
	Avatar     string        `json:"avatar,omitempty"`
	BloodGroup string        `json:"blood_group,omitempty"`
	District   string        `json:"district,omitempty"`
	Upazila    string        `json:"upazila,omitempty"`
	Role       Role          `json:"role"`
	Status     Status        `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (u *User) IsBlocked() bool {
	return u.Status == StatusBlocked
}

// NewUser builds a freshly registered donor. Registration never grants a
// privileged role; promotion goes through SetRole.
func NewUser(email domain.Email, p Profile, now time.Time) (*User, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email cannot be empty")
	}
	u := &User{
		ID:        domain.UserID(uuid.New()),
		Email:     email,
		Role:      RoleDonor,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.ApplyTo(u)
	if strings.TrimSpace(u.Name) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	return u, nil
}

// Profile holds the self-editable fields. Nil fields are left unchanged.
type Profile struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Avatar     *string `json:"avatar,omitempty" validate:"omitempty,max=2048"`
	BloodGroup *string `json:"blood_group,omitempty" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	District   *string `json:"district,omitempty" validate:"omitempty,max=128"`
	Upazila    *string `json:"upazila,omitempty" validate:"omitempty,max=128"`
}

// Clean trims the name and rejects one that is blank after trimming.
func (p Profile) Clean() (Profile, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return p, dErrors.New(dErrors.CodeValidation, "name cannot be empty")
		}
		p.Name = &name
	}
	return p, nil
}

// ApplyTo copies the set fields onto u.
func (p Profile) ApplyTo(u *User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.BloodGroup != nil {
		u.BloodGroup = *p.BloodGroup
	}
	if p.District != nil {
		u.District = *p.District
	}
	if p.Upazila != nil {
		u.Upazila = *p.Upazila
	}
}

// Filter restricts directory listings by exact-match status.
type Filter struct {
	Status Status
}

func (f Filter) Matches(u *User) bool {
	return f.Status == "" || u.Status == f.Status
}
