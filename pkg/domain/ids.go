package domain

import (
	"github.com/google/uuid"

	dErrors "lifeline/pkg/domain-errors"
)

// Typed identifiers keep records of one collection from being looked up in
// another. Users are keyed by email; UserID is their surrogate key.
type (
	UserID     uuid.UUID
	DonationID uuid.UUID
	BlogID     uuid.UUID
	PaymentID  uuid.UUID
)

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id DonationID) String() string { return uuid.UUID(id).String() }
func (id BlogID) String() string     { return uuid.UUID(id).String() }
func (id PaymentID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id BlogID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id DonationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id BlogID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id PaymentID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DonationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BlogID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PaymentID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }

// ParseUserID parses a non-nil UUID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

// ParseDonationID parses a non-nil UUID from external input.
func ParseDonationID(s string) (DonationID, error) {
	u, err := parseUUID(s)
	return DonationID(u), err
}

// ParseBlogID parses a non-nil UUID from external input.
func ParseBlogID(s string) (BlogID, error) {
	u, err := parseUUID(s)
	return BlogID(u), err
}

// ParsePaymentID parses a non-nil UUID from external input.
func ParsePaymentID(s string) (PaymentID, error) {
	u, err := parseUUID(s)
	return PaymentID(u), err
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id cannot be empty")
	}
	if len(s) != 36 {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid id format")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid id format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id cannot be nil")
	}
	return u, nil
}
