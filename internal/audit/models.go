package audit

import "time"

// EventType names an auditable action.
type EventType string

const (
	EventUserRegistered     EventType = "user_registered"
	EventRoleChanged        EventType = "user_role_changed"
	EventStatusChanged      EventType = "user_status_changed"
	EventDonationTransition EventType = "donation_status_changed"
	EventDonationDeleted    EventType = "donation_deleted"
	EventBlogPublished      EventType = "blog_published"
	EventBlogDeleted        EventType = "blog_deleted"
	EventPaymentRecorded    EventType = "payment_recorded"
	EventAccessDenied       EventType = "access_denied"
	EventTokenRevoked       EventType = "token_revoked"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    EventType `json:"action"`
	Actor     string    `json:"actor,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}
