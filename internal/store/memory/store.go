// Package memory implements every repository interface over in-process maps.
// One mutex guards all tables, so each multi-step write is atomic.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"careshare/internal/appointments"
	"careshare/internal/audit"
	"careshare/internal/calls"
	"careshare/internal/conversations"
	"careshare/internal/reporting"
	"careshare/internal/seniors"
	"careshare/internal/volunteers"
)

var (
	_ seniors.Repository       = (*Store)(nil)
	_ volunteers.Repository    = (*Store)(nil)
	_ appointments.Repository  = (*Store)(nil)
	_ conversations.Repository = (*Store)(nil)
	_ calls.Repository         = (*Store)(nil)
	_ audit.Repository         = (*Store)(nil)
	_ reporting.Repository     = (*Store)(nil)
)

type Store struct {
	mu  sync.Mutex
	now func() time.Time
	ids map[string]int64

	seniors         map[int64]seniors.Senior
	volunteers      map[int64]volunteers.Volunteer
	volunteerSkills map[int64][]string
	appointments    map[int64]appointments.Appointment
	conversations   map[int64]conversations.Conversation
	calls           map[int64]conversations.Call
	attempts        []calls.Attempt
	events          []audit.Event

	// FailFinalizeLink, when set, is returned by FinalizeConversation in
	// place of linking the appointment, after the appointment was staged.
	FailFinalizeLink error
}

func New() *Store {
	return &Store{
		now:             func() time.Time { return time.Now().UTC() },
		ids:             map[string]int64{},
		seniors:         map[int64]seniors.Senior{},
		volunteers:      map[int64]volunteers.Volunteer{},
		volunteerSkills: map[int64][]string{},
		appointments:    map[int64]appointments.Appointment{},
		conversations:   map[int64]conversations.Conversation{},
		calls:           map[int64]conversations.Call{},
	}
}

func (s *Store) nextID(table string) int64 {
	s.ids[table]++
	return s.ids[table]
}

// --- seeding helpers ---

// AddSenior inserts sr with a fresh id and returns the stored row.
func (s *Store) AddSenior(sr seniors.Senior) seniors.Senior {
	s.mu.Lock()
	defer s.mu.Unlock()
	sr.ID = s.nextID("seniors")
	if sr.CreatedAt.IsZero() {
		sr.CreatedAt = s.now()
		sr.UpdatedAt = sr.CreatedAt
	}
	s.seniors[sr.ID] = sr
	return sr
}

// AddVolunteer inserts v with the given skills.
func (s *Store) AddVolunteer(v volunteers.Volunteer, skillNames ...string) volunteers.Volunteer {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.nextID("volunteers")
	if v.BackgroundCheckStatus == "" {
		v.BackgroundCheckStatus = volunteers.BackgroundNotStarted
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now()
	}
	s.volunteers[v.ID] = v
	s.volunteerSkills[v.ID] = append([]string(nil), skillNames...)
	return v
}

func (s *Store) AddAppointment(a appointments.Appointment) appointments.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID("appointments")
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.appointments[a.ID] = a
	return a
}

func (s *Store) AuditEvents() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}

func (s *Store) CallAttempts() []calls.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]calls.Attempt(nil), s.attempts...)
}

func (s *Store) Ping(context.Context) error { return nil }

// --- seniors ---

func (s *Store) ListSeniors(context.Context) ([]seniors.Senior, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]seniors.Senior, 0, len(s.seniors))
	for _, sr := range s.seniors {
		out = append(out, sr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) GetSenior(_ context.Context, id int64) (seniors.Senior, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sr, ok := s.seniors[id]
	if !ok {
		return seniors.Senior{}, seniors.ErrNotFound
	}
	return sr, nil
}

func (s *Store) FindSeniorByPhone(_ context.Context, phone string) (seniors.Senior, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sr, ok := s.seniorByPhone(phone); ok {
		return sr, nil
	}
	return seniors.Senior{}, seniors.ErrNotFound
}

func (s *Store) seniorByPhone(phone string) (seniors.Senior, bool) {
	for _, sr := range s.seniors {
		if sr.PhoneNumber == phone {
			return sr, true
		}
	}
	return seniors.Senior{}, false
}

func (s *Store) UpsertSenior(_ context.Context, in seniors.UpsertInput) (seniors.Senior, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertSenior(in), nil
}

func (s *Store) upsertSenior(in seniors.UpsertInput) seniors.Senior {
	now := s.now()
	sr, ok := s.seniorByPhone(in.PhoneNumber)
	if !ok {
		sr = seniors.Senior{
			ID:          s.nextID("seniors"),
			PhoneNumber: in.PhoneNumber,
			IsActive:    true,
			CreatedAt:   now,
		}
	}
	if in.FirstName != nil {
		sr.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		sr.LastName = *in.LastName
	}
	sr.Email = coalesce(in.Email, sr.Email)
	sr.StreetAddress = coalesce(in.StreetAddress, sr.StreetAddress)
	sr.City = coalesce(in.City, sr.City)
	sr.State = coalesce(in.State, sr.State)
	sr.ZipCode = coalesce(in.ZipCode, sr.ZipCode)
	sr.UpdatedAt = now
	s.seniors[sr.ID] = sr
	return sr
}

// --- volunteers ---

func (s *Store) ListVolunteers(context.Context) ([]volunteers.Volunteer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]volunteers.Volunteer, 0, len(s.volunteers))
	for _, v := range s.volunteers {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) GetVolunteer(_ context.Context, id int64) (volunteers.Volunteer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.volunteers[id]
	if !ok {
		return volunteers.Volunteer{}, volunteers.ErrNotFound
	}
	return v, nil
}

func (s *Store) SearchVolunteers(_ context.Context, f volunteers.Filter) ([]volunteers.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zips map[string]bool
	if f.Zips != nil {
		zips = make(map[string]bool, len(f.Zips))
		for _, z := range f.Zips {
			zips[z] = true
		}
	}

	out := make([]volunteers.Candidate, 0)
	for _, v := range s.volunteers {
		if !v.IsActive {
			continue
		}
		if zips != nil && !zips[v.ZipCode] {
			continue
		}
		skillNames := s.volunteerSkills[v.ID]
		if f.Skill != "" && !contains(skillNames, f.Skill) {
			continue
		}
		out = append(out, volunteers.Candidate{
			ID:          v.ID,
			FirstName:   v.FirstName,
			LastName:    v.LastName,
			PhoneNumber: v.PhoneNumber,
			ZipCode:     v.ZipCode,
			Skills:      append([]string{}, skillNames...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// --- appointments ---

func (s *Store) listing(a appointments.Appointment) appointments.Listing {
	l := appointments.Listing{Appointment: a}
	if sr, ok := s.seniors[a.SeniorID]; ok {
		l.SeniorFirstName = strPtr(sr.FirstName)
		l.SeniorLastName = strPtr(sr.LastName)
	}
	if a.VolunteerID != nil {
		if v, ok := s.volunteers[*a.VolunteerID]; ok {
			l.VolunteerFirstName = strPtr(v.FirstName)
			l.VolunteerLastName = strPtr(v.LastName)
		}
	}
	return l
}

func (s *Store) listAppointments(keep func(appointments.Appointment) bool) []appointments.Listing {
	out := make([]appointments.Listing, 0)
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, s.listing(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppointmentDatetime.Equal(out[j].AppointmentDatetime) {
			return out[i].AppointmentDatetime.After(out[j].AppointmentDatetime)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) ListAppointments(context.Context) ([]appointments.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAppointments(func(appointments.Appointment) bool { return true }), nil
}

func (s *Store) ListSeniorAppointments(_ context.Context, seniorID int64) ([]appointments.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAppointments(func(a appointments.Appointment) bool { return a.SeniorID == seniorID }), nil
}

func (s *Store) ListVolunteerAppointments(_ context.Context, volunteerID int64) ([]appointments.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAppointments(func(a appointments.Appointment) bool {
		return a.VolunteerID != nil && *a.VolunteerID == volunteerID
	}), nil
}

func (s *Store) CreateAppointment(_ context.Context, in appointments.NewAppointment) (appointments.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertAppointment(in), nil
}

func (s *Store) insertAppointment(in appointments.NewAppointment) appointments.Appointment {
	a := appointments.Appointment{
		ID:                  s.nextID("appointments"),
		SeniorID:            in.SeniorID,
		VolunteerID:         in.VolunteerID,
		AppointmentDatetime: in.AppointmentDatetime,
		Location:            in.Location,
		Status:              in.Status,
		NotesForVolunteer:   in.NotesForVolunteer,
		CreatedAt:           s.now(),
	}
	s.appointments[a.ID] = a
	return a
}

func (s *Store) TransitionAppointment(_ context.Context, id int64, to appointments.Status, check func(from appointments.Status) error) (appointments.Appointment, appointments.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return appointments.Appointment{}, "", appointments.ErrNotFound
	}
	from := a.Status
	if check != nil {
		if err := check(from); err != nil {
			return appointments.Appointment{}, from, err
		}
	}
	a.Status = to
	s.appointments[id] = a
	return a, from, nil
}

// --- conversations ---

func (s *Store) CreateConversation(_ context.Context, nc conversations.NewConversation, senior *seniors.UpsertInput) (conversations.Conversation, *seniors.Senior, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var created *seniors.Senior
	if senior != nil {
		sr := s.upsertSenior(*senior)
		created = &sr
		id := sr.ID
		nc.SeniorID = &id
	}

	now := s.now()
	conv := conversations.Conversation{
		ID:                s.nextID("conversations"),
		SeniorID:          nc.SeniorID,
		CallerPhoneNumber: nc.CallerPhoneNumber,
		RequestDetails:    nc.RequestDetails,
		MatchedSkill:      nc.MatchedSkill,
		NearbyVolunteers:  append([]volunteers.Candidate{}, nc.NearbyVolunteers...),
		Status:            conversations.StatusOpen,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.conversations[conv.ID] = conv
	return conv, created, nil
}

func (s *Store) GetConversation(_ context.Context, id int64) (conversations.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return conversations.Conversation{}, conversations.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListConversationCalls(_ context.Context, conversationID int64) ([]conversations.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationCalls(conversationID), nil
}

// conversationCalls returns the calls of one conversation, newest first.
func (s *Store) conversationCalls(conversationID int64) []conversations.Call {
	out := make([]conversations.Call, 0)
	for _, c := range s.calls {
		if c.ConversationID == conversationID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) ListAcceptedVolunteers(_ context.Context, conversationID int64) ([]conversations.AcceptedVolunteer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]conversations.AcceptedVolunteer, 0)
	for _, c := range s.conversationCalls(conversationID) {
		if c.Outcome != calls.OutcomeAccepted || c.VolunteerID == nil {
			continue
		}
		v, ok := s.volunteers[*c.VolunteerID]
		if !ok {
			continue
		}
		out = append(out, conversations.AcceptedVolunteer{
			VolunteerID: v.ID,
			FirstName:   v.FirstName,
			LastName:    v.LastName,
			PhoneNumber: v.PhoneNumber,
		})
	}
	return out, nil
}

func (s *Store) LogConversationCall(_ context.Context, nc conversations.NewCall) (conversations.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[nc.ConversationID]
	if !ok {
		return conversations.Call{}, conversations.ErrNotFound
	}
	role := nc.Role
	if role == "" {
		role = calls.RoleVolunteer
	}
	now := s.now()
	c := conversations.Call{
		ID:             s.nextID("conversation_calls"),
		ConversationID: nc.ConversationID,
		VolunteerID:    nc.VolunteerID,
		Outcome:        nc.Outcome,
		Notes:          nc.Notes,
		CallSID:        nc.CallSID,
		Role:           role,
		CreatedAt:      now,
	}
	s.calls[c.ID] = c
	conv.UpdatedAt = now
	s.conversations[conv.ID] = conv
	return c, nil
}

func (s *Store) SettleVolunteerCall(_ context.Context, nc conversations.NewCall) (conversations.Call, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[nc.ConversationID]
	if !ok {
		return conversations.Call{}, false, conversations.ErrNotFound
	}
	now := s.now()
	conv.UpdatedAt = now
	s.conversations[conv.ID] = conv

	var pending conversations.Call
	found := false
	for _, c := range s.calls {
		if c.ConversationID != nc.ConversationID || c.Role != calls.RoleVolunteer || c.Outcome != calls.OutcomePending {
			continue
		}
		if c.VolunteerID == nil || nc.VolunteerID == nil || *c.VolunteerID != *nc.VolunteerID {
			continue
		}
		if !found || c.ID > pending.ID {
			pending, found = c, true
		}
	}
	if found {
		pending.Outcome = nc.Outcome
		if nc.Notes != nil {
			pending.Notes = nc.Notes
		}
		s.calls[pending.ID] = pending
		return pending, true, nil
	}

	c := conversations.Call{
		ID:             s.nextID("conversation_calls"),
		ConversationID: nc.ConversationID,
		VolunteerID:    nc.VolunteerID,
		Outcome:        nc.Outcome,
		Notes:          nc.Notes,
		CallSID:        nc.CallSID,
		Role:           calls.RoleVolunteer,
		CreatedAt:      now,
	}
	s.calls[c.ID] = c
	return c, false, nil
}

func (s *Store) FindCallBySID(_ context.Context, sid string) (conversations.Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.callBySID(sid); ok {
		return c, nil
	}
	return conversations.Call{}, conversations.ErrCallNotFound
}

// callBySID returns the newest call with sid.
func (s *Store) callBySID(sid string) (conversations.Call, bool) {
	var found conversations.Call
	ok := false
	for _, c := range s.calls {
		if c.CallSID != nil && *c.CallSID == sid && (!ok || c.ID > found.ID) {
			found, ok = c, true
		}
	}
	return found, ok
}

func (s *Store) UpdateCallOutcomeBySID(_ context.Context, sid string, from, to calls.Outcome) (conversations.Call, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.callBySID(sid)
	if !ok {
		return conversations.Call{}, false, conversations.ErrCallNotFound
	}
	if c.Outcome != from {
		return c, false, nil
	}
	c.Outcome = to
	s.calls[c.ID] = c
	return c, true, nil
}

func (s *Store) FinalizeConversation(_ context.Context, conversationID int64, in appointments.NewAppointment) (appointments.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return appointments.Appointment{}, conversations.ErrNotFound
	}
	if conv.Status != conversations.StatusOpen {
		return appointments.Appointment{}, conversations.ErrAlreadyScheduled
	}

	appt := s.insertAppointment(in)
	if s.FailFinalizeLink != nil {
		delete(s.appointments, appt.ID)
		return appointments.Appointment{}, s.FailFinalizeLink
	}

	id := appt.ID
	conv.Status = conversations.StatusScheduled
	conv.ScheduledAppointmentID = &id
	conv.UpdatedAt = s.now()
	s.conversations[conv.ID] = conv
	return appt, nil
}

// --- call attempts ---

func (s *Store) CreateCallAttempt(_ context.Context, a calls.Attempt) (calls.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID("call_attempts")
	a.CreatedAt = s.now()
	s.attempts = append(s.attempts, a)
	return a, nil
}

// --- audit ---

func (s *Store) AppendAuditEvent(_ context.Context, e audit.Event) error {
	if e.ID == "" {
		return errors.New("audit event id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// --- reporting ---

func (s *Store) CountActiveSeniors(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sr := range s.seniors {
		if sr.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountActiveVolunteers(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, v := range s.volunteers {
		if v.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountUpcomingAppointments(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.appointments {
		if a.Status == appointments.StatusScheduled || a.Status == appointments.StatusConfirmed {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountCompletedAppointmentsSince(_ context.Context, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.appointments {
		if a.Status == appointments.StatusCompleted && !a.AppointmentDatetime.Before(since) {
			n++
		}
	}
	return n, nil
}

func coalesce(v, fallback *string) *string {
	if v != nil {
		return v
	}
	return fallback
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }
