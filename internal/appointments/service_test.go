package appointments_test

import (
	"context"
	"testing"
	"time"

	"careshare/internal/appointments"
	"careshare/internal/audit"
	"careshare/internal/seniors"
	"careshare/internal/store/memory"
	"careshare/internal/volunteers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type transition struct {
	from, to appointments.Status
	result   string
}

func newService(mode string) (*appointments.Service, *memory.Store, *[]transition) {
	store := memory.New()
	svc := appointments.NewService(store, store, store, appointments.NewRules(mode), audit.NewService(store))
	var seen []transition
	svc.OnTransition = func(from, to appointments.Status, result string) {
		seen = append(seen, transition{from, to, result})
	}
	return svc, store, &seen
}

func TestSetStatus_PermissiveAllowsAnyMove(t *testing.T) {
	svc, store, _ := newService("permissive")
	ctx := context.Background()
	appt := store.AddAppointment(appointments.Appointment{SeniorID: 1, Status: appointments.StatusCompleted})

	for _, to := range appointments.Statuses {
		out, err := svc.SetStatus(ctx, appt.ID, to)
		require.NoError(t, err, to)
		assert.Equal(t, to, out.Status)
	}
}

func TestSetStatus_StrictRejectsIllegalMoves(t *testing.T) {
	svc, store, seen := newService("strict")
	ctx := context.Background()
	appt := store.AddAppointment(appointments.Appointment{SeniorID: 1, Status: appointments.StatusRequested})

	_, err := svc.SetStatus(ctx, appt.ID, appointments.StatusCompleted)
	require.ErrorIs(t, err, appointments.ErrInvalidTransition)

	out, err := svc.SetStatus(ctx, appt.ID, appointments.StatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusScheduled, out.Status)

	out, err = svc.Confirm(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusConfirmed, out.Status)

	_, err = svc.Confirm(ctx, appt.ID)
	require.NoError(t, err)

	assert.Equal(t, []transition{
		{appointments.StatusRequested, appointments.StatusCompleted, "rejected"},
		{appointments.StatusRequested, appointments.StatusScheduled, "applied"},
		{appointments.StatusScheduled, appointments.StatusConfirmed, "applied"},
		{appointments.StatusConfirmed, appointments.StatusConfirmed, "unchanged"},
	}, *seen)

	events := store.AuditEvents()
	require.Len(t, events, 2)
	assert.Equal(t, audit.EventAppointmentStatusChanged, events[0].Type)
	assert.Equal(t, appt.ID, events[0].EntityID)
}

func TestSetStatus_Errors(t *testing.T) {
	svc, _, _ := newService("strict")
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, 1, "Lost")
	assert.ErrorIs(t, err, appointments.ErrInvalidStatus)

	_, err = svc.SetStatus(ctx, 404, appointments.StatusConfirmed)
	assert.ErrorIs(t, err, appointments.ErrNotFound)
}

func TestSchedule_DefaultsLocationToSeniorAddress(t *testing.T) {
	svc, store, _ := newService("strict")
	ctx := context.Background()
	senior := store.AddSenior(seniors.Senior{
		FirstName:     "Arthur",
		PhoneNumber:   "+12015551234",
		StreetAddress: ptr("1 Castle Rd"),
		City:          ptr("Camelot"),
		State:         ptr("CA"),
		ZipCode:       ptr("90210"),
	})
	vol := store.AddVolunteer(volunteers.Volunteer{FirstName: "David", IsActive: true})
	when := time.Date(2025, 10, 7, 10, 0, 0, 0, time.UTC)

	appt, err := svc.Schedule(ctx, appointments.ScheduleInput{SeniorID: senior.ID, VolunteerID: vol.ID, AppointmentDatetime: when})
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusScheduled, appt.Status)
	assert.Equal(t, "1 Castle Rd, Camelot, CA, 90210", *appt.Location)
	assert.True(t, when.Equal(appt.AppointmentDatetime))

	list, err := svc.ListForVolunteer(ctx, vol.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Arthur", *list[0].SeniorFirstName)

	_, err = svc.Schedule(ctx, appointments.ScheduleInput{SeniorID: senior.ID, VolunteerID: 999, AppointmentDatetime: when})
	assert.ErrorIs(t, err, volunteers.ErrNotFound)
	_, err = svc.Schedule(ctx, appointments.ScheduleInput{SeniorID: 999, VolunteerID: vol.ID, AppointmentDatetime: when})
	assert.ErrorIs(t, err, seniors.ErrNotFound)
}
