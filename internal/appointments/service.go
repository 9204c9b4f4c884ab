package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"careshare/internal/audit"
	"careshare/internal/seniors"
	"careshare/internal/volunteers"
	"careshare/pkg/logger"
)

var (
	ErrNotFound      = errors.New("appointment not found")
	ErrInvalidStatus = errors.New("invalid appointment status")
)

type Repository interface {
	ListAppointments(ctx context.Context) ([]Listing, error)
	ListSeniorAppointments(ctx context.Context, seniorID int64) ([]Listing, error)
	ListVolunteerAppointments(ctx context.Context, volunteerID int64) ([]Listing, error)
	CreateAppointment(ctx context.Context, in NewAppointment) (Appointment, error)
	// TransitionAppointment locks the row, calls check with the stored
	// status and writes to only when check returns nil. It returns the
	// updated row and the previous status.
	TransitionAppointment(ctx context.Context, id int64, to Status, check func(from Status) error) (Appointment, Status, error)
}

// SeniorLookup and VolunteerLookup are the reads scheduling needs.
type SeniorLookup interface {
	GetSenior(ctx context.Context, id int64) (seniors.Senior, error)
}

type VolunteerLookup interface {
	GetVolunteer(ctx context.Context, id int64) (volunteers.Volunteer, error)
}

type Service struct {
	repo       Repository
	seniors    SeniorLookup
	volunteers VolunteerLookup
	rules      Rules
	audit      *audit.Service

	// OnTransition observes every status write attempt. result is one of
	// "applied", "unchanged" or "rejected".
	OnTransition func(from, to Status, result string)
}

func NewService(repo Repository, seniorsRepo SeniorLookup, volunteersRepo VolunteerLookup, rules Rules, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, seniors: seniorsRepo, volunteers: volunteersRepo, rules: rules, audit: auditSvc}
}

type ScheduleInput struct {
	SeniorID            int64
	VolunteerID         int64
	AppointmentDatetime time.Time
	Location            *string
	NotesForVolunteer   *string
}

// Schedule books a Scheduled appointment. Location defaults to the senior's
// address.
func (s *Service) Schedule(ctx context.Context, in ScheduleInput) (Appointment, error) {
	senior, err := s.seniors.GetSenior(ctx, in.SeniorID)
	if err != nil {
		return Appointment{}, err
	}
	if _, err := s.volunteers.GetVolunteer(ctx, in.VolunteerID); err != nil {
		return Appointment{}, err
	}

	vid := in.VolunteerID
	out, err := s.repo.CreateAppointment(ctx, NewAppointment{
		SeniorID:            in.SeniorID,
		VolunteerID:         &vid,
		AppointmentDatetime: in.AppointmentDatetime.UTC(),
		Location:            DefaultLocation(in.Location, senior),
		Status:              StatusScheduled,
		NotesForVolunteer:   in.NotesForVolunteer,
	})
	if err != nil {
		return Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	return out, nil
}

func (s *Service) Confirm(ctx context.Context, id int64) (Appointment, error) {
	return s.SetStatus(ctx, id, StatusConfirmed)
}

// SetStatus moves an appointment to status under the configured rules.
func (s *Service) SetStatus(ctx context.Context, id int64, to Status) (Appointment, error) {
	if !to.Valid() {
		return Appointment{}, ErrInvalidStatus
	}

	out, from, err := s.repo.TransitionAppointment(ctx, id, to, func(from Status) error {
		return s.rules.Check(from, to)
	})
	switch {
	case errors.Is(err, ErrInvalidTransition):
		s.observe(from, to, "rejected")
		logger.From(ctx).Info("appointment transition rejected", "appointment_id", id, "from", from, "to", to)
		return Appointment{}, err
	case err != nil:
		return Appointment{}, err
	}

	if from == to {
		s.observe(from, to, "unchanged")
		return out, nil
	}
	s.observe(from, to, "applied")
	s.audit.AppointmentStatusChanged(ctx, id, string(from), string(to))
	return out, nil
}

func (s *Service) List(ctx context.Context) ([]Listing, error) {
	return s.repo.ListAppointments(ctx)
}

func (s *Service) ListForSenior(ctx context.Context, seniorID int64) ([]Listing, error) {
	return s.repo.ListSeniorAppointments(ctx, seniorID)
}

func (s *Service) ListForVolunteer(ctx context.Context, volunteerID int64) ([]Listing, error) {
	return s.repo.ListVolunteerAppointments(ctx, volunteerID)
}

func (s *Service) observe(from, to Status, result string) {
	if s.OnTransition != nil {
		s.OnTransition(from, to, result)
	}
}

// DefaultLocation returns loc when set, else the senior's address, else nil.
func DefaultLocation(loc *string, senior seniors.Senior) *string {
	if loc != nil && *loc != "" {
		return loc
	}
	if l := senior.Location(); l != "" {
		return &l
	}
	return nil
}
