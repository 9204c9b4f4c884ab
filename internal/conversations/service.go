package conversations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"careshare/internal/appointments"
	"careshare/internal/audit"
	"careshare/internal/calls"
	"careshare/internal/geo"
	"careshare/internal/matching"
	"careshare/internal/seniors"
	"careshare/internal/skills"
	"careshare/internal/volunteers"
	"careshare/pkg/logger"
)

var (
	ErrNotFound         = errors.New("conversation not found")
	ErrCallNotFound     = errors.New("conversation call not found")
	ErrAlreadyScheduled = errors.New("conversation already scheduled")
	ErrNoSenior         = errors.New("senior id is required to schedule")
)

type Repository interface {
	// CreateConversation inserts nc. When senior is non-nil it is upserted
	// first in the same transaction and becomes the conversation's senior.
	CreateConversation(ctx context.Context, nc NewConversation, senior *seniors.UpsertInput) (Conversation, *seniors.Senior, error)
	GetConversation(ctx context.Context, id int64) (Conversation, error)
	ListConversationCalls(ctx context.Context, conversationID int64) ([]Call, error)
	ListAcceptedVolunteers(ctx context.Context, conversationID int64) ([]AcceptedVolunteer, error)
	// LogConversationCall inserts the call and touches the conversation's
	// updated_at atomically. ErrNotFound when the conversation is missing.
	LogConversationCall(ctx context.Context, nc NewCall) (Call, error)
	// SettleVolunteerCall writes nc.Outcome onto the newest PENDING
	// volunteer call to nc.VolunteerID in the conversation and reports
	// settled. Without one it inserts a new VOLUNTEER row instead. The
	// conversation's updated_at is touched either way.
	SettleVolunteerCall(ctx context.Context, nc NewCall) (c Call, settled bool, err error)
	FindCallBySID(ctx context.Context, sid string) (Call, error)
	// UpdateCallOutcomeBySID sets to only while the row still has outcome
	// from. updated is false when nothing matched.
	UpdateCallOutcomeBySID(ctx context.Context, sid string, from, to calls.Outcome) (c Call, updated bool, err error)
	// FinalizeConversation locks the conversation, rejects it with
	// ErrAlreadyScheduled unless OPEN, inserts appt and links it.
	FinalizeConversation(ctx context.Context, conversationID int64, appt appointments.NewAppointment) (appointments.Appointment, error)
}

type SeniorStore interface {
	GetSenior(ctx context.Context, id int64) (seniors.Senior, error)
	FindSeniorByPhone(ctx context.Context, phone string) (seniors.Senior, error)
}

type VolunteerLookup interface {
	GetVolunteer(ctx context.Context, id int64) (volunteers.Volunteer, error)
}

// Searcher runs the volunteer cascade.
type Searcher interface {
	Search(ctx context.Context, in matching.Input) (matching.Result, error)
}

// SlotReleaser frees an outbound call slot held for a conversation.
type SlotReleaser interface {
	Release(ctx context.Context, conversationID int64) error
}

type Deps struct {
	Repo       Repository
	Seniors    SeniorStore
	Volunteers VolunteerLookup
	Phones     seniors.PhoneNormalizer
	Skills     skills.Matcher
	Matching   Searcher
	Slots      SlotReleaser
	Audit      *audit.Service
}

type Service struct {
	Deps
}

func NewService(d Deps) *Service { return &Service{Deps: d} }

type StartInput struct {
	CallerPhoneNumber string
	RequestDetails    string
	CreateIfMissing   bool

	FirstName     *string
	LastName      *string
	Email         *string
	StreetAddress *string
	City          *string
	State         *string
	ZipCode       *string

	// Zip overrides the senior's zip for the search.
	Zip    string
	Radius int
}

type StartResult struct {
	ConversationID int64                  `json:"conversation_id"`
	Senior         *seniors.Senior        `json:"senior"`
	MatchedSkill   *string                `json:"matched_skill"`
	Volunteers     []volunteers.Candidate `json:"volunteers"`
	SearchTier     matching.Tier          `json:"search_tier"`
}

// StartInbound records an inbound request: it resolves or creates the
// senior, matches a skill, runs the volunteer cascade and stores the
// candidates as an OPEN conversation.
func (s *Service) StartInbound(ctx context.Context, in StartInput) (StartResult, error) {
	phone, err := s.Phones.Normalize(in.CallerPhoneNumber)
	if err != nil {
		return StartResult{}, err
	}

	var senior *seniors.Senior
	found, err := s.Seniors.FindSeniorByPhone(ctx, phone)
	switch {
	case err == nil:
		senior = &found
	case !errors.Is(err, seniors.ErrNotFound):
		return StartResult{}, fmt.Errorf("find senior: %w", err)
	}

	var create *seniors.UpsertInput
	if senior == nil && (in.CreateIfMissing || nonEmpty(in.FirstName) || nonEmpty(in.LastName) || nonEmpty(in.ZipCode)) {
		create = &seniors.UpsertInput{
			FirstName:     in.FirstName,
			LastName:      in.LastName,
			PhoneNumber:   phone,
			Email:         seniors.CleanEmail(in.Email),
			StreetAddress: in.StreetAddress,
			City:          in.City,
			State:         in.State,
			ZipCode:       in.ZipCode,
		}
	}

	searchZip := strings.TrimSpace(in.Zip)
	switch {
	case searchZip != "":
	case senior != nil:
		searchZip = senior.Zip()
	case create != nil && create.ZipCode != nil:
		searchZip = *create.ZipCode
	}

	var matched *string
	if skill, ok := s.Skills.Match(in.RequestDetails); ok {
		matched = &skill
	}

	res, err := s.Matching.Search(ctx, matching.Input{Skill: deref(matched), Zip: searchZip, Radius: in.Radius})
	if errors.Is(err, geo.ErrUnknownZip) {
		// Well-formed but unknown zips fall back to a search without location.
		logger.From(ctx).Warn("zip not in directory, searching without location", "zip", searchZip)
		res, err = s.Matching.Search(ctx, matching.Input{Skill: deref(matched), Radius: in.Radius})
	}
	if err != nil {
		return StartResult{}, err
	}

	nc := NewConversation{
		CallerPhoneNumber: phone,
		RequestDetails:    in.RequestDetails,
		MatchedSkill:      matched,
		NearbyVolunteers:  res.Volunteers,
	}
	if senior != nil {
		id := senior.ID
		nc.SeniorID = &id
	}

	conv, created, err := s.Repo.CreateConversation(ctx, nc, create)
	if err != nil {
		return StartResult{}, fmt.Errorf("create conversation: %w", err)
	}
	if created != nil {
		senior = created
		s.Audit.SeniorUpserted(ctx, created.ID)
	}

	logger.From(ctx).Info("inbound conversation started",
		"conversation_id", conv.ID,
		"matched_skill", deref(matched),
		"search_tier", res.Tier,
		"candidates", len(res.Volunteers),
	)

	return StartResult{
		ConversationID: conv.ID,
		Senior:         senior,
		MatchedSkill:   matched,
		Volunteers:     res.Volunteers,
		SearchTier:     res.Tier,
	}, nil
}

type LogCallInput struct {
	ConversationID int64
	VolunteerID    int64
	Outcome        calls.Outcome
	Notes          *string
}

// LogVolunteerCall records the outcome of a volunteer call. The outbound
// slot is freed only when the outcome settles a call that was still
// PENDING, since a provider callback may already have released it.
func (s *Service) LogVolunteerCall(ctx context.Context, in LogCallInput) (Call, error) {
	if !in.Outcome.Loggable() {
		return Call{}, calls.ErrInvalidOutcome
	}
	if _, err := s.Repo.GetConversation(ctx, in.ConversationID); err != nil {
		return Call{}, err
	}
	if _, err := s.Volunteers.GetVolunteer(ctx, in.VolunteerID); err != nil {
		return Call{}, err
	}

	vid := in.VolunteerID
	out, settled, err := s.Repo.SettleVolunteerCall(ctx, NewCall{
		ConversationID: in.ConversationID,
		VolunteerID:    &vid,
		Outcome:        in.Outcome,
		Notes:          in.Notes,
		Role:           calls.RoleVolunteer,
	})
	if err != nil {
		return Call{}, err
	}

	if settled && s.Slots != nil {
		if err := s.Slots.Release(ctx, in.ConversationID); err != nil {
			logger.From(ctx).Warn("release outbound slot failed", "conversation_id", in.ConversationID, "err", err)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	conv, err := s.Repo.GetConversation(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	cs, err := s.Repo.ListConversationCalls(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Conversation: conv, Calls: cs}, nil
}

func (s *Service) Accepted(ctx context.Context, id int64) ([]AcceptedVolunteer, error) {
	return s.Repo.ListAcceptedVolunteers(ctx, id)
}

type FinalizeInput struct {
	ConversationID      int64
	ChosenVolunteerID   int64
	AppointmentDatetime time.Time
	Location            *string
	NotesForVolunteer   *string
	SeniorID            *int64
}

// Finalize schedules the chosen volunteer and closes the conversation in
// one transaction.
func (s *Service) Finalize(ctx context.Context, in FinalizeInput) (appointments.Appointment, error) {
	conv, err := s.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return appointments.Appointment{}, err
	}

	seniorID := in.SeniorID
	if seniorID == nil {
		seniorID = conv.SeniorID
	}
	if seniorID == nil {
		return appointments.Appointment{}, ErrNoSenior
	}
	senior, err := s.Seniors.GetSenior(ctx, *seniorID)
	if err != nil {
		return appointments.Appointment{}, err
	}
	if _, err := s.Volunteers.GetVolunteer(ctx, in.ChosenVolunteerID); err != nil {
		return appointments.Appointment{}, err
	}

	vid := in.ChosenVolunteerID
	appt, err := s.Repo.FinalizeConversation(ctx, in.ConversationID, appointments.NewAppointment{
		SeniorID:            senior.ID,
		VolunteerID:         &vid,
		AppointmentDatetime: in.AppointmentDatetime.UTC(),
		Location:            appointments.DefaultLocation(in.Location, senior),
		Status:              appointments.StatusScheduled,
		NotesForVolunteer:   in.NotesForVolunteer,
	})
	if err != nil {
		return appointments.Appointment{}, err
	}

	s.Audit.ConversationFinalized(ctx, in.ConversationID, appt.ID, vid)
	return appt, nil
}

func nonEmpty(p *string) bool { return p != nil && strings.TrimSpace(*p) != "" }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
