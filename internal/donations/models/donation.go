package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// Status is the lifecycle stage of a donation request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
	StatusCanceled   Status = "canceled"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusInProgress, StatusDone, StatusCanceled:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be one of pending, inprogress, done, canceled")
}

// transitions lists the moves each status allows. Done and canceled are
// terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCanceled},
	StatusInProgress: {StatusDone, StatusCanceled},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DonationRequest asks donors for blood on behalf of a recipient.
//
// Invariants:
//   - RequesterEmail is the owner and never changes after creation
//   - Status only moves along the transitions table
//   - DonorEmail is set exactly when a donor has taken the request on
type DonationRequest struct {
	ID             domain.DonationID `json:"id"`
	RequesterEmail domain.Email      `json:"requester_email"`
	RequesterName  string            `json:"requester_name"`
	RecipientName  string            `json:"recipient_name"`
	BloodGroup     string            `json:"blood_group"`
	District       string            `json:"district"`
	Upazila        string            `json:"upazila"`
	Hospital       string            `json:"hospital"`
	Address        string            `json:"address"`
	DonationDate   string            `json:"donation_date"`
	DonationTime   string            `json:"donation_time"`
	Message        string            `json:"message,omitempty"`
	Status         Status            `json:"status"`
	DonorName      string            `json:"donor_name,omitempty"`
	DonorEmail     domain.Email      `json:"donor_email,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Draft is the requester-supplied content of a donation request.
type Draft struct {
	RecipientName string `json:"recipient_name" validate:"required,max=128"`
	BloodGroup    string `json:"blood_group" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	District      string `json:"district" validate:"required,max=128"`
	Upazila       string `json:"upazila" validate:"required,max=128"`
	Hospital      string `json:"hospital" validate:"required,max=256"`
	Address       string `json:"address" validate:"required,max=512"`
	DonationDate  string `json:"donation_date" validate:"required,datetime=2006-01-02"`
	DonationTime  string `json:"donation_time" validate:"required,datetime=15:04"`
	Message       string `json:"message" validate:"max=2048"`
}

// NewDonationRequest opens a pending request owned by requester.
func NewDonationRequest(requester domain.Email, requesterName string, d Draft, now time.Time) (*DonationRequest, error) {
	if requester == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requester email cannot be empty")
	}
	if strings.TrimSpace(d.RecipientName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "recipient name cannot be empty")
	}
	return &DonationRequest{
		ID:             domain.DonationID(uuid.New()),
		RequesterEmail: requester,
		RequesterName:  requesterName,
		RecipientName:  strings.TrimSpace(d.RecipientName),
		BloodGroup:     d.BloodGroup,
		District:       d.District,
		Upazila:        d.Upazila,
		Hospital:       d.Hospital,
		Address:        d.Address,
		DonationDate:   d.DonationDate,
		DonationTime:   d.DonationTime,
		Message:        d.Message,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Apply replaces the requester-editable content. Ownership, status and donor
// fields are left alone.
func (r *DonationRequest) Apply(d Draft, now time.Time) {
	r.RecipientName = strings.TrimSpace(d.RecipientName)
	r.BloodGroup = d.BloodGroup
	r.District = d.District
	r.Upazila = d.Upazila
	r.Hospital = d.Hospital
	r.Address = d.Address
	r.DonationDate = d.DonationDate
	r.DonationTime = d.DonationTime
	r.Message = d.Message
	r.UpdatedAt = now
}

// TransitionTo moves the request to status to. Starting a request records
// the donor taking it on.
func (r *DonationRequest) TransitionTo(to Status, donorName string, donorEmail domain.Email, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"cannot move donation request from "+string(r.Status)+" to "+string(to))
	}
	if to == StatusInProgress {
		r.DonorName = donorName
		r.DonorEmail = donorEmail
	}
	r.Status = to
	r.UpdatedAt = now
	return nil
}

// Filter restricts listings. Status is exact match; RequesterEmail scopes a
// listing to one owner.
type Filter struct {
	Status         Status
	RequesterEmail domain.Email
}

func (f Filter) Matches(r *DonationRequest) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.RequesterEmail != "" && r.RequesterEmail != f.RequesterEmail {
		return false
	}
	return true
}
