package personalization

import (
	"context"
	"strings"
	"testing"
	"time"

	"careshare/internal/calls"
	"careshare/internal/conversations"
	"careshare/internal/seniors"
	"careshare/internal/volunteers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityPhones struct{}

func (identityPhones) Normalize(raw string) (string, error) { return strings.TrimSpace(raw), nil }

type fakeStore struct {
	seniors       map[int64]seniors.Senior
	conversations map[int64]conversations.Conversation
	calls         map[string]conversations.Call
	volunteers    map[int64]volunteers.Volunteer
}

func (f *fakeStore) FindSeniorByPhone(_ context.Context, phone string) (seniors.Senior, error) {
	for _, s := range f.seniors {
		if s.PhoneNumber == phone {
			return s, nil
		}
	}
	return seniors.Senior{}, seniors.ErrNotFound
}

func (f *fakeStore) GetSenior(_ context.Context, id int64) (seniors.Senior, error) {
	if s, ok := f.seniors[id]; ok {
		return s, nil
	}
	return seniors.Senior{}, seniors.ErrNotFound
}

func (f *fakeStore) GetConversation(_ context.Context, id int64) (conversations.Conversation, error) {
	if c, ok := f.conversations[id]; ok {
		return c, nil
	}
	return conversations.Conversation{}, conversations.ErrNotFound
}

func (f *fakeStore) FindCallBySID(_ context.Context, sid string) (conversations.Call, error) {
	if c, ok := f.calls[sid]; ok {
		return c, nil
	}
	return conversations.Call{}, conversations.ErrCallNotFound
}

func (f *fakeStore) GetVolunteer(_ context.Context, id int64) (volunteers.Volunteer, error) {
	if v, ok := f.volunteers[id]; ok {
		return v, nil
	}
	return volunteers.Volunteer{}, volunteers.ErrNotFound
}

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	prompts, err := LoadPrompts("")
	require.NoError(t, err)

	seniorID := int64(1)
	volID := int64(7)
	store := &fakeStore{
		seniors: map[int64]seniors.Senior{
			1: {ID: 1, FirstName: "Arthur", LastName: "Pendragon", PhoneNumber: "+12015551234"},
			2: {ID: 2, FirstName: "Eleanor", LastName: "Vance", PhoneNumber: "+15558675309"},
		},
		conversations: map[int64]conversations.Conversation{
			10: {
				ID:               10,
				SeniorID:         &seniorID,
				MatchedSkill:     ptr("Driving"),
				NearbyVolunteers: []volunteers.Candidate{{ID: 7}, {ID: 8}},
			},
		},
		calls: map[string]conversations.Call{
			"CA-vol": {ConversationID: 10, VolunteerID: &volID, Role: calls.RoleVolunteer},
			"CA-cb":  {ConversationID: 10, Role: calls.RoleSeniorCallback},
		},
		volunteers: map[int64]volunteers.Volunteer{
			7: {ID: 7, FirstName: "David", LastName: "Chen"},
		},
	}
	svc := &Service{
		Phones:        identityPhones{},
		Seniors:       store,
		Conversations: store,
		Volunteers:    store,
		Prompts:       prompts,
		Timezone:      "America/New_York",
		Now:           func() time.Time { return time.Date(2025, 10, 6, 14, 0, 0, 0, time.UTC) },
	}
	return svc, store
}

func TestPersonalize_InboundKnownCaller(t *testing.T) {
	svc, _ := newTestService(t)

	var seen Mode
	svc.OnResolve = func(m Mode) { seen = m }

	res, err := svc.Personalize(context.Background(), Request{CallerID: "+12015551234", CallSID: "CA-new"})
	require.NoError(t, err)
	assert.Equal(t, ModeInbound, seen)
	assert.Equal(t, "conversation_initiation_client_data", res.Type)
	assert.Equal(t, "en", res.ConversationConfigOverride.Agent.Language)
	assert.Equal(t, "Hello! How can I help you today?", res.ConversationConfigOverride.Agent.FirstMessage)

	prompt := res.ConversationConfigOverride.Agent.Prompt.Prompt
	assert.Contains(t, prompt, "Allowed tools this call: createSenior, startInboundConversation. Use MCP tools only.")
	assert.Contains(t, prompt, "Current time (UTC): 2025-10-06T14:00:00Z. Timezone: America/New_York. Caller phone: +12015551234.")
	assert.Contains(t, prompt, "Possible match on file: Arthur Pendragon (id 1).")
	assert.Contains(t, prompt, "Address appears incomplete")
}

func TestPersonalize_ModeFromCallRole(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Personalize(context.Background(), Request{CallerID: "+19085555678", CallSID: "CA-vol"})
	require.NoError(t, err)
	prompt := res.ConversationConfigOverride.Agent.Prompt.Prompt
	assert.True(t, strings.HasPrefix(prompt, "You are the CareShare assistant calling a volunteer."))
	assert.Contains(t, prompt, "Senior: Arthur Pendragon.")
	assert.Contains(t, prompt, "Volunteer: David Chen.")
	assert.Contains(t, prompt, "Skill/Task: Driving.")

	res, err = svc.Personalize(context.Background(), Request{CallerID: "+12015551234", CallSID: "CA-cb"})
	require.NoError(t, err)
	prompt = res.ConversationConfigOverride.Agent.Prompt.Prompt
	assert.Contains(t, prompt, "Nearby volunteers considered: 2.")
	assert.Equal(t, "Hello again, this is CareShare. I have some options for you.", res.ConversationConfigOverride.Agent.FirstMessage)
}

func TestPersonalize_ExplicitModeWins(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Personalize(context.Background(), Request{
		CallerID:       "+10000000000",
		CallSID:        "CA-vol",
		Mode:           ModeSeniorCallback,
		ConversationID: ptr(int64(10)),
	})
	require.NoError(t, err)
	assert.Contains(t, res.ConversationConfigOverride.Agent.Prompt.Prompt, "You are calling the senior back with results.")
}

func TestResolveMode(t *testing.T) {
	assert.Equal(t, ModeInbound, resolveMode("", ""))
	assert.Equal(t, ModeVolunteerOutbound, resolveMode("", "VOLUNTEER"))
	assert.Equal(t, ModeSeniorCallback, resolveMode("", "SENIOR_CALLBACK"))
	assert.Equal(t, ModeInbound, resolveMode(ModeInbound, "VOLUNTEER"))
}
