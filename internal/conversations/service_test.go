package conversations_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"careshare/internal/appointments"
	"careshare/internal/audit"
	"careshare/internal/calls"
	"careshare/internal/conversations"
	"careshare/internal/geo"
	"careshare/internal/matching"
	"careshare/internal/phone"
	"careshare/internal/seniors"
	"careshare/internal/skills"
	"careshare/internal/store/memory"
	"careshare/internal/volunteers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type releaseCounter struct{ released []int64 }

func (r *releaseCounter) Release(_ context.Context, id int64) error {
	r.released = append(r.released, id)
	return nil
}

type fixture struct {
	store  *memory.Store
	svc    *conversations.Service
	slots  *releaseCounter
	senior seniors.Senior
	david  volunteers.Volunteer
	maria  volunteers.Volunteer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	senior := store.AddSenior(seniors.Senior{
		FirstName:   "Arthur",
		LastName:    "Pendragon",
		PhoneNumber: "+15164770955",
		ZipCode:     ptr("90210"),
		IsActive:    true,
	})
	david := store.AddVolunteer(volunteers.Volunteer{FirstName: "David", LastName: "Chen", ZipCode: "90211", IsActive: true}, skills.Gardening, skills.Companionship)
	maria := store.AddVolunteer(volunteers.Volunteer{FirstName: "Maria", LastName: "Garcia", ZipCode: "10002", IsActive: true}, skills.Driving, skills.TechHelp)

	slots := &releaseCounter{}
	svc := conversations.NewService(conversations.Deps{
		Repo:       store,
		Seniors:    store,
		Volunteers: store,
		Phones:     phone.NewNormalizer("US"),
		Skills:     skills.NewWordMatcher(),
		Matching:   matching.NewEngine(store, geo.NewMemoryDirectory(geo.DemoPoints...)),
		Slots:      slots,
		Audit:      audit.NewService(store),
	})
	return fixture{store: store, svc: svc, slots: slots, senior: senior, david: david, maria: maria}
}

func TestStartInbound_KnownSeniorLocalSkill(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.StartInbound(context.Background(), conversations.StartInput{
		CallerPhoneNumber: "(516) 477-0955",
		RequestDetails:    "I need help with my garden",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Senior)
	assert.Equal(t, f.senior.ID, res.Senior.ID)
	assert.Equal(t, skills.Gardening, *res.MatchedSkill)
	assert.Equal(t, matching.TierSkillRadius, res.SearchTier)
	require.Len(t, res.Volunteers, 1)
	assert.Equal(t, f.david.ID, res.Volunteers[0].ID)

	conv, err := f.store.GetConversation(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, conversations.StatusOpen, conv.Status)
	assert.Equal(t, f.senior.ID, *conv.SeniorID)
	assert.Len(t, conv.NearbyVolunteers, 1)
}

func TestStartInbound_DrivingFallsBackPastLocalRadius(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.StartInbound(context.Background(), conversations.StartInput{
		CallerPhoneNumber: "+15164770955",
		RequestDetails:    "I need a ride to the doctor",
	})
	require.NoError(t, err)
	assert.Equal(t, skills.Driving, *res.MatchedSkill)
	// Only David is near 90210 and he does not drive.
	assert.Equal(t, matching.TierAnyRadius, res.SearchTier)
	assert.Equal(t, f.david.ID, res.Volunteers[0].ID)
}

func TestStartInbound_CreatesMissingSenior(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.StartInbound(context.Background(), conversations.StartInput{
		CallerPhoneNumber: "+1 516 477 0956",
		RequestDetails:    "someone to chat with",
		FirstName:         ptr("Eleanor"),
		ZipCode:           ptr("10001"),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Senior)
	assert.Equal(t, "Eleanor", res.Senior.FirstName)
	assert.Equal(t, "+15164770956", res.Senior.PhoneNumber)

	conv, err := f.store.GetConversation(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, res.Senior.ID, *conv.SeniorID)
	assert.Len(t, f.store.AuditEvents(), 1)
}

func TestStartInbound_UnknownCallerWithoutDetailsHasNoSenior(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.StartInbound(context.Background(), conversations.StartInput{
		CallerPhoneNumber: "+1 516 477 0957",
		RequestDetails:    "hello",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Senior)
	assert.Nil(t, res.MatchedSkill)
	assert.Equal(t, matching.TierAnyAnywhere, res.SearchTier)
	assert.Len(t, res.Volunteers, 2)
}

func TestStartInbound_InvalidPhone(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.StartInbound(context.Background(), conversations.StartInput{CallerPhoneNumber: "abc"})
	assert.ErrorIs(t, err, phone.ErrInvalidPhone)
}

func TestLogVolunteerCall_WithoutDialKeepsSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.StartInbound(ctx, conversations.StartInput{CallerPhoneNumber: "+15164770955", RequestDetails: "garden"})
	require.NoError(t, err)

	call, err := f.svc.LogVolunteerCall(ctx, conversations.LogCallInput{
		ConversationID: res.ConversationID,
		VolunteerID:    f.david.ID,
		Outcome:        calls.OutcomeAccepted,
	})
	require.NoError(t, err)
	assert.Equal(t, calls.RoleVolunteer, call.Role)
	assert.Empty(t, f.slots.released)

	accepted, err := f.svc.Accepted(ctx, res.ConversationID)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "David", accepted[0].FirstName)

	_, err = f.svc.LogVolunteerCall(ctx, conversations.LogCallInput{ConversationID: res.ConversationID, VolunteerID: f.david.ID, Outcome: calls.OutcomePending})
	assert.ErrorIs(t, err, calls.ErrInvalidOutcome)
	_, err = f.svc.LogVolunteerCall(ctx, conversations.LogCallInput{ConversationID: 999, VolunteerID: f.david.ID, Outcome: calls.OutcomeDeclined})
	assert.ErrorIs(t, err, conversations.ErrNotFound)
}

func TestLogVolunteerCall_SettlesPendingDialOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.StartInbound(ctx, conversations.StartInput{CallerPhoneNumber: "+15164770955", RequestDetails: "garden"})
	require.NoError(t, err)
	pending, err := f.store.LogConversationCall(ctx, conversations.NewCall{
		ConversationID: res.ConversationID,
		VolunteerID:    &f.david.ID,
		Outcome:        calls.OutcomePending,
		CallSID:        ptr("CA1"),
		Role:           calls.RoleVolunteer,
	})
	require.NoError(t, err)

	call, err := f.svc.LogVolunteerCall(ctx, conversations.LogCallInput{
		ConversationID: res.ConversationID,
		VolunteerID:    f.david.ID,
		Outcome:        calls.OutcomeDeclined,
		Notes:          ptr("busy this week"),
	})
	require.NoError(t, err)
	assert.Equal(t, pending.ID, call.ID)
	assert.Equal(t, calls.OutcomeDeclined, call.Outcome)
	assert.Equal(t, "CA1", *call.CallSID)
	assert.Equal(t, []int64{res.ConversationID}, f.slots.released)

	// A second report for the same volunteer has nothing pending to settle.
	_, err = f.svc.LogVolunteerCall(ctx, conversations.LogCallInput{ConversationID: res.ConversationID, VolunteerID: f.david.ID, Outcome: calls.OutcomeAccepted})
	require.NoError(t, err)
	assert.Len(t, f.slots.released, 1)

	detail, err := f.svc.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	assert.Len(t, detail.Calls, 2)
}

func TestFinalize_SchedulesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.StartInbound(ctx, conversations.StartInput{CallerPhoneNumber: "+15164770955", RequestDetails: "garden"})
	require.NoError(t, err)

	in := conversations.FinalizeInput{
		ConversationID:      res.ConversationID,
		ChosenVolunteerID:   f.david.ID,
		AppointmentDatetime: time.Date(2025, 10, 7, 10, 0, 0, 0, time.UTC),
	}
	appt, err := f.svc.Finalize(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusScheduled, appt.Status)
	assert.Equal(t, f.david.ID, *appt.VolunteerID)
	assert.Equal(t, "90210", *appt.Location)

	detail, err := f.svc.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, conversations.StatusScheduled, detail.Conversation.Status)
	assert.Equal(t, appt.ID, *detail.Conversation.ScheduledAppointmentID)

	_, err = f.svc.Finalize(ctx, in)
	assert.ErrorIs(t, err, conversations.ErrAlreadyScheduled)

	list, err := f.store.ListAppointments(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFinalize_FailedLinkLeavesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.StartInbound(ctx, conversations.StartInput{CallerPhoneNumber: "+15164770955", RequestDetails: "garden"})
	require.NoError(t, err)

	f.store.FailFinalizeLink = errors.New("update failed")
	_, err = f.svc.Finalize(ctx, conversations.FinalizeInput{
		ConversationID:      res.ConversationID,
		ChosenVolunteerID:   f.david.ID,
		AppointmentDatetime: time.Now(),
	})
	require.Error(t, err)

	list, err := f.store.ListAppointments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.store.AuditEvents())
}

func TestFinalize_NeedsSenior(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.StartInbound(ctx, conversations.StartInput{CallerPhoneNumber: "+1 516 477 0957", RequestDetails: "hello"})
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, conversations.FinalizeInput{ConversationID: res.ConversationID, ChosenVolunteerID: f.david.ID, AppointmentDatetime: time.Now()})
	assert.ErrorIs(t, err, conversations.ErrNoSenior)

	_, err = f.svc.Finalize(ctx, conversations.FinalizeInput{ConversationID: res.ConversationID, ChosenVolunteerID: f.david.ID, SeniorID: &f.senior.ID, AppointmentDatetime: time.Now()})
	assert.NoError(t, err)
}
