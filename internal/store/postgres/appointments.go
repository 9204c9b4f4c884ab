package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"careshare/internal/appointments"
	"careshare/pkg/utils"
)

const appointmentColumns = `id, senior_id, volunteer_id, appointment_datetime, duration_minutes, location, status,
	notes_for_volunteer, feedback_from_senior, feedback_from_volunteer, created_at`

func scanAppointment(r rowScanner, extra ...any) (appointments.Appointment, error) {
	var a appointments.Appointment
	dest := []any{&a.ID, &a.SeniorID, &a.VolunteerID, &a.AppointmentDatetime, &a.DurationMinutes, &a.Location,
		&a.Status, &a.NotesForVolunteer, &a.FeedbackFromSenior, &a.FeedbackFromVolunteer, &a.CreatedAt}
	err := r.Scan(append(dest, extra...)...)
	return a, err
}

const listingQuery = `
	SELECT a.id, a.senior_id, a.volunteer_id, a.appointment_datetime, a.duration_minutes, a.location, a.status,
	       a.notes_for_volunteer, a.feedback_from_senior, a.feedback_from_volunteer, a.created_at,
	       s.first_name, s.last_name, v.first_name, v.last_name
	FROM appointments a
	LEFT JOIN seniors s ON s.id = a.senior_id
	LEFT JOIN volunteers v ON v.id = a.volunteer_id`

func (s *Store) listings(ctx context.Context, where string, args ...any) ([]appointments.Listing, error) {
	rows, err := s.db.QueryContext(ctx, listingQuery+" "+where+" ORDER BY a.appointment_datetime DESC, a.id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	out := make([]appointments.Listing, 0)
	for rows.Next() {
		var l appointments.Listing
		a, err := scanAppointment(rows, &l.SeniorFirstName, &l.SeniorLastName, &l.VolunteerFirstName, &l.VolunteerLastName)
		if err != nil {
			return nil, err
		}
		l.Appointment = a
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) ListAppointments(ctx context.Context) ([]appointments.Listing, error) {
	return s.listings(ctx, "")
}

func (s *Store) ListSeniorAppointments(ctx context.Context, seniorID int64) ([]appointments.Listing, error) {
	return s.listings(ctx, "WHERE a.senior_id = $1", seniorID)
}

func (s *Store) ListVolunteerAppointments(ctx context.Context, volunteerID int64) ([]appointments.Listing, error) {
	return s.listings(ctx, "WHERE a.volunteer_id = $1", volunteerID)
}

func (s *Store) CreateAppointment(ctx context.Context, in appointments.NewAppointment) (appointments.Appointment, error) {
	return insertAppointment(ctx, s.db, in)
}

func insertAppointment(ctx context.Context, q utils.Querier, in appointments.NewAppointment) (appointments.Appointment, error) {
	return scanAppointment(q.QueryRowContext(ctx, `
		INSERT INTO appointments (senior_id, volunteer_id, appointment_datetime, location, status, notes_for_volunteer)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+appointmentColumns,
		in.SeniorID, in.VolunteerID, in.AppointmentDatetime, in.Location, string(in.Status), in.NotesForVolunteer,
	))
}

func (s *Store) TransitionAppointment(ctx context.Context, id int64, to appointments.Status, check func(from appointments.Status) error) (appointments.Appointment, appointments.Status, error) {
	var (
		out  appointments.Appointment
		from appointments.Status
	)
	err := s.tx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT status FROM appointments WHERE id = $1 FOR UPDATE`, id).Scan(&from)
		if errors.Is(err, sql.ErrNoRows) {
			return appointments.ErrNotFound
		}
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(from); err != nil {
				return err
			}
		}
		out, err = scanAppointment(tx.QueryRowContext(ctx,
			`UPDATE appointments SET status = $2 WHERE id = $1 RETURNING `+appointmentColumns, id, string(to)))
		return err
	})
	if err != nil {
		return appointments.Appointment{}, from, err
	}
	return out, from, nil
}
