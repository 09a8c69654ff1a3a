// Package policy is the single access gate every operation passes through.
//
// Rules is the declarative table of who may do what. The gate evaluates it
// against a fresh directory read of the caller, never against the role and
// status embedded in the credential, so promotions and blocks take effect on
// the next request.
package policy

import (
	"lifeline/internal/users/models"
	"lifeline/pkg/domain"
)

// Operation names a gated action.
type Operation string

const (
	OpTokenIssue  Operation = "token.issue"
	OpTokenRevoke Operation = "token.revoke"

	OpUserRegister  Operation = "user.register"
	OpUserList      Operation = "user.list"
	OpUserRead      Operation = "user.read"
	OpUserUpdate    Operation = "user.update"
	OpUserSetRole   Operation = "user.set_role"
	OpUserSetStatus Operation = "user.set_status"

	OpDonationList     Operation = "donation.list"
	OpDonationRead     Operation = "donation.read"
	OpDonationCount    Operation = "donation.count"
	OpDonationListMine Operation = "donation.list_mine"
	OpDonationListAll  Operation = "donation.list_all"
	OpDonationCreate   Operation = "donation.create"
	OpDonationUpdate   Operation = "donation.update"
	OpDonationDelete   Operation = "donation.delete"
	OpDonationStart    Operation = "donation.start"
	OpDonationCancel   Operation = "donation.cancel"
	OpDonationComplete Operation = "donation.complete"

	OpBlogList      Operation = "blog.list"
	OpBlogRead      Operation = "blog.read"
	OpBlogReadDraft Operation = "blog.read_draft"
	OpBlogCount     Operation = "blog.count"
	OpBlogListAll   Operation = "blog.list_all"
	OpBlogCreate    Operation = "blog.create"
	OpBlogUpdate    Operation = "blog.update"
	OpBlogPublish   Operation = "blog.publish"
	OpBlogDelete    Operation = "blog.delete"

	OpPaymentCreateIntent Operation = "payment.create_intent"
	OpPaymentRecord       Operation = "payment.record"
	OpPaymentList         Operation = "payment.list"
	OpPaymentListMine     Operation = "payment.list_mine"

	OpStatsRead Operation = "stats.read"
)

// Rule describes who may perform one operation. Admins are allowed every
// operation, so a zero Rule means admin only.
type Rule struct {
	// Public operations need no identity at all.
	Public bool
	// ReadOnly operations stay available to blocked callers.
	ReadOnly bool
	// Roles granted the operation regardless of ownership.
	Roles []models.Role
	// Owner grants the operation to the caller named as the resource owner.
	Owner bool
	// AnyAuthenticated grants the operation to every known, unblocked caller.
	AnyAuthenticated bool
}

func (r Rule) grants(role models.Role) bool {
	for _, granted := range r.Roles {
		if granted == role {
			return true
		}
	}
	return false
}

var volunteer = []models.Role{models.RoleVolunteer}

// Rules is the authorization table.
var Rules = map[Operation]Rule{
	OpTokenIssue:  {Public: true},
	OpTokenRevoke: {AnyAuthenticated: true},

	OpUserRegister:  {Public: true},
	OpUserList:      {ReadOnly: true},
	OpUserRead:      {ReadOnly: true, Owner: true},
	OpUserUpdate:    {Owner: true},
	OpUserSetRole:   {},
	OpUserSetStatus: {},

	OpDonationList:     {Public: true, ReadOnly: true},
	OpDonationRead:     {Public: true, ReadOnly: true},
	OpDonationCount:    {Public: true, ReadOnly: true},
	OpDonationListMine: {ReadOnly: true, AnyAuthenticated: true},
	OpDonationListAll:  {ReadOnly: true, Roles: volunteer},
	OpDonationCreate:   {AnyAuthenticated: true},
	OpDonationUpdate:   {Owner: true},
	OpDonationDelete:   {Owner: true},
	OpDonationStart:    {Roles: volunteer, Owner: true},
	OpDonationCancel:   {Owner: true},
	OpDonationComplete: {Roles: volunteer},

	OpBlogList:      {Public: true, ReadOnly: true},
	OpBlogRead:      {Public: true, ReadOnly: true},
	OpBlogReadDraft: {ReadOnly: true, Roles: volunteer, Owner: true},
	OpBlogCount:     {Public: true, ReadOnly: true},
	OpBlogListAll:   {ReadOnly: true, Roles: volunteer},
	OpBlogCreate:    {AnyAuthenticated: true},
	OpBlogUpdate:    {Roles: volunteer, Owner: true},
	OpBlogPublish:   {},
	OpBlogDelete:    {},

	OpPaymentCreateIntent: {AnyAuthenticated: true},
	OpPaymentRecord:       {AnyAuthenticated: true},
	OpPaymentList:         {ReadOnly: true, Roles: volunteer},
	OpPaymentListMine:     {ReadOnly: true, AnyAuthenticated: true},

	OpStatsRead: {ReadOnly: true, Roles: volunteer},
}

// RuleFor returns the rule for op. Unknown operations are admin only.
func RuleFor(op Operation) Rule {
	return Rules[op]
}

// Action is one request to perform an operation, optionally on a resource
// owned by OwnerEmail.
type Action struct {
	Operation  Operation
	OwnerEmail domain.Email
}
