package postgres

import (
	"context"
	"fmt"

	"careshare/internal/audit"
	"careshare/internal/calls"
)

func (s *Store) CreateCallAttempt(ctx context.Context, a calls.Attempt) (calls.Attempt, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO call_attempts (senior_id, volunteer_id, outcome, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		a.SeniorID, a.VolunteerID, string(a.Outcome), a.Notes,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return calls.Attempt{}, fmt.Errorf("insert call attempt: %w", err)
	}
	return a, nil
}

func (s *Store) AppendAuditEvent(ctx context.Context, e audit.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, type, entity_type, entity_id, actor_role, request_id, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, '')::jsonb, $9)`,
		e.ID, string(e.Type), e.EntityType, e.EntityID, e.ActorRole, e.RequestID, e.Message, e.Metadata, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
