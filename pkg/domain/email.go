package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "lifeline/pkg/domain-errors"
)

var emailValidator = validator.New()

// Email is the natural key of an identity and the owner key of every
// resource. Always compare normalized values.
type Email string

// NormalizeEmail trims and lower-cases an address without validating it.
func NormalizeEmail(s string) Email {
	return Email(strings.ToLower(strings.TrimSpace(s)))
}

// ParseEmail normalizes and validates an address at a trust boundary.
func ParseEmail(s string) (Email, error) {
	e := NormalizeEmail(s)
	if e == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if err := emailValidator.Var(string(e), "email"); err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	return e, nil
}

func (e Email) String() string {
	return string(e)
}

// Matches reports whether two addresses name the same identity. An empty
// address never matches, so dangling or missing owners are never owners.
func (e Email) Matches(other Email) bool {
	if e == "" || other == "" {
		return false
	}
	return NormalizeEmail(string(e)) == NormalizeEmail(string(other))
}
