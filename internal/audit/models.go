package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and request id capture are best-effort; audit failures never
//   block the flow that produced the event.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	EntityType string `json:"entity_type" db:"entity_type"`
	EntityID   int64  `json:"entity_id" db:"entity_id"`

	// ActorRole is the token role of the caller when auth is enabled.
	ActorRole string `json:"actor_role,omitempty" db:"actor_role"`
	RequestID string `json:"request_id,omitempty" db:"request_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventAppointmentStatusChanged EventType = "appointment_status_changed"
	EventConversationFinalized    EventType = "conversation_finalized"
	EventSeniorUpserted           EventType = "senior_upserted"
)
