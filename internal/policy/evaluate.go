package policy

import (
	"lifeline/internal/users/models"
	"lifeline/pkg/domain"
)

// Reason explains a decision. It is recorded on metrics, spans and audit
// events, never returned to clients.
type Reason string

const (
	ReasonPublic        Reason = "public"
	ReasonAdmin         Reason = "admin"
	ReasonRole          Reason = "role"
	ReasonOwner         Reason = "owner"
	ReasonAuthenticated Reason = "authenticated"

	ReasonNoCredentials Reason = "no_credentials"
	ReasonUnknownCaller Reason = "unknown_caller"
	ReasonBlocked       Reason = "blocked"
	ReasonNotPermitted  Reason = "not_permitted"
	ReasonLookupFailed  Reason = "lookup_failed"
)

// Outcome is the result of evaluating a rule.
type Outcome struct {
	Allowed bool
	Reason  Reason
}

func allow(r Reason) Outcome { return Outcome{Allowed: true, Reason: r} }
func deny(r Reason) Outcome  { return Outcome{Reason: r} }

// Evaluate decides rule for a known caller acting on a resource owned by
// owner. It performs no I/O. Public rules and the unknown-caller case are
// handled by the gate before a caller exists.
func Evaluate(rule Rule, caller *models.User, owner domain.Email) Outcome {
	if rule.Public {
		return allow(ReasonPublic)
	}
	if caller == nil {
		return deny(ReasonUnknownCaller)
	}
	if caller.IsBlocked() && !rule.ReadOnly {
		return deny(ReasonBlocked)
	}
	if caller.Role == models.RoleAdmin {
		return allow(ReasonAdmin)
	}
	if rule.grants(caller.Role) {
		return allow(ReasonRole)
	}
	if rule.Owner && owner.Matches(caller.Email) {
		return allow(ReasonOwner)
	}
	if rule.AnyAuthenticated {
		return allow(ReasonAuthenticated)
	}
	return deny(ReasonNotPermitted)
}
