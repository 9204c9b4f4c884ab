package postgres

import (
	"context"
	"time"

	"careshare/internal/appointments"
)

func (s *Store) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (s *Store) CountActiveSeniors(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM seniors WHERE is_active`)
}

func (s *Store) CountActiveVolunteers(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM volunteers WHERE is_active`)
}

func (s *Store) CountUpcomingAppointments(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM appointments WHERE status IN ($1, $2)`,
		string(appointments.StatusScheduled), string(appointments.StatusConfirmed))
}

func (s *Store) CountCompletedAppointmentsSince(ctx context.Context, since time.Time) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM appointments WHERE status = $1 AND appointment_datetime >= $2`,
		string(appointments.StatusCompleted), since)
}
