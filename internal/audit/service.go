package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"careshare/internal/auth"
	"careshare/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only.
type Repository interface {
	AppendAuditEvent(ctx context.Context, e Event) error
}

// Service records internal audit information. A nil *Service is valid and
// records nothing.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.EntityType == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.ActorRole == "" {
		e.ActorRole = auth.RoleOrEmpty(ctx)
	}
	if e.RequestID == "" {
		e.RequestID = logger.RequestIDFrom(ctx)
	}
	return s.repo.AppendAuditEvent(ctx, e)
}

// AppointmentStatusChanged records a status write on an appointment.
func (s *Service) AppointmentStatusChanged(ctx context.Context, appointmentID int64, from, to string) {
	s.record(ctx, Event{
		Type:       EventAppointmentStatusChanged,
		EntityType: "appointment",
		EntityID:   appointmentID,
		Message:    from + " -> " + to,
	}, map[string]any{"from": from, "to": to})
}

// ConversationFinalized records the appointment created for a conversation.
func (s *Service) ConversationFinalized(ctx context.Context, conversationID, appointmentID, volunteerID int64) {
	s.record(ctx, Event{
		Type:       EventConversationFinalized,
		EntityType: "conversation",
		EntityID:   conversationID,
		Message:    "appointment scheduled",
	}, map[string]any{"appointment_id": appointmentID, "volunteer_id": volunteerID})
}

// SeniorUpserted records a create-or-update of a senior profile.
func (s *Service) SeniorUpserted(ctx context.Context, seniorID int64) {
	s.record(ctx, Event{
		Type:       EventSeniorUpserted,
		EntityType: "senior",
		EntityID:   seniorID,
		Message:    "created_or_updated",
	}, nil)
}

func (s *Service) record(ctx context.Context, e Event, meta map[string]any) {
	if s == nil {
		return
	}
	if meta != nil {
		if raw, err := json.Marshal(meta); err == nil {
			e.Metadata = string(raw)
		}
	}
	if err := s.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed", "type", e.Type, "entity_id", e.EntityID, "err", err)
	}
}
