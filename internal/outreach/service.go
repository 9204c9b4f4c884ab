package outreach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"careshare/internal/calls"
	"careshare/internal/conversations"
	"careshare/internal/seniors"
	"careshare/internal/telephony"
	"careshare/internal/volunteers"
	"careshare/pkg/logger"
)

// ErrRateLimited means the conversation already has the maximum number of
// volunteer calls in flight.
var ErrRateLimited = errors.New("outreach: too many concurrent calls for conversation")

// CallLog is the slice of the conversation store outbound calls write to.
type CallLog interface {
	GetConversation(ctx context.Context, id int64) (conversations.Conversation, error)
	LogConversationCall(ctx context.Context, nc conversations.NewCall) (conversations.Call, error)
	FindCallBySID(ctx context.Context, sid string) (conversations.Call, error)
	UpdateCallOutcomeBySID(ctx context.Context, sid string, from, to calls.Outcome) (conversations.Call, bool, error)
}

type SeniorLookup interface {
	GetSenior(ctx context.Context, id int64) (seniors.Senior, error)
}

type VolunteerLookup interface {
	GetVolunteer(ctx context.Context, id int64) (volunteers.Volunteer, error)
}

// Service places agent calls to volunteers and seniors and keeps the
// conversation call log in step with the provider.
type Service struct {
	calls      CallLog
	seniors    SeniorLookup
	volunteers VolunteerLookup
	dialer     telephony.Dialer
	slots      telephony.SlotLimiter
	testNumber string

	// OnCall observes each dial. result is "ok", "upstream_error",
	// "failed" or "rate_limited".
	OnCall func(role calls.Role, result string)
}

func NewService(log CallLog, seniorsRepo SeniorLookup, volunteersRepo VolunteerLookup, dialer telephony.Dialer, slots telephony.SlotLimiter, testNumber string) *Service {
	if slots == nil {
		slots = telephony.NopSlots{}
	}
	return &Service{
		calls:      log,
		seniors:    seniorsRepo,
		volunteers: volunteersRepo,
		dialer:     dialer,
		slots:      slots,
		testNumber: testNumber,
	}
}

type VolunteerCallInput struct {
	ConversationID int64
	VolunteerID    int64
	// ToNumber overrides the volunteer's phone.
	ToNumber string
}

// CallVolunteer dials a volunteer for a conversation and records a PENDING
// call. The slot taken here is freed when the outcome is logged or the
// provider reports a failed call.
func (s *Service) CallVolunteer(ctx context.Context, in VolunteerCallInput) (telephony.OutboundCallResult, error) {
	if _, err := s.calls.GetConversation(ctx, in.ConversationID); err != nil {
		return telephony.OutboundCallResult{}, err
	}
	vol, err := s.volunteers.GetVolunteer(ctx, in.VolunteerID)
	if err != nil {
		return telephony.OutboundCallResult{}, err
	}

	ok, err := s.slots.Acquire(ctx, in.ConversationID)
	if err != nil {
		// Fail open: a Redis outage should not stop volunteer outreach.
		logger.From(ctx).Warn("acquire outbound slot failed", "conversation_id", in.ConversationID, "err", err)
		ok = true
	}
	if !ok {
		s.observe(calls.RoleVolunteer, "rate_limited")
		return telephony.OutboundCallResult{}, ErrRateLimited
	}

	to := strings.TrimSpace(in.ToNumber)
	if to == "" {
		to = vol.PhoneNumber
	}
	res, err := s.dial(ctx, calls.RoleVolunteer, to)
	if err != nil || !res.OK {
		s.release(ctx, in.ConversationID)
		return res, err
	}

	vid := in.VolunteerID
	s.record(ctx, conversations.NewCall{
		ConversationID: in.ConversationID,
		VolunteerID:    &vid,
		Outcome:        calls.OutcomePending,
		CallSID:        sidPtr(res.CallSID),
		Role:           calls.RoleVolunteer,
	})
	return res, nil
}

type SeniorCallbackInput struct {
	ConversationID int64
	SeniorID       *int64
	ToNumber       string
}

// CallbackSenior dials the senior back once a volunteer has been found.
func (s *Service) CallbackSenior(ctx context.Context, in SeniorCallbackInput) (telephony.OutboundCallResult, error) {
	conv, err := s.calls.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return telephony.OutboundCallResult{}, err
	}
	seniorID := in.SeniorID
	if seniorID == nil {
		seniorID = conv.SeniorID
	}
	if seniorID == nil {
		return telephony.OutboundCallResult{}, conversations.ErrNoSenior
	}
	senior, err := s.seniors.GetSenior(ctx, *seniorID)
	if err != nil {
		return telephony.OutboundCallResult{}, err
	}

	to := strings.TrimSpace(in.ToNumber)
	if to == "" {
		to = senior.PhoneNumber
	}
	res, err := s.dial(ctx, calls.RoleSeniorCallback, to)
	if err != nil || !res.OK {
		return res, err
	}

	s.record(ctx, conversations.NewCall{
		ConversationID: in.ConversationID,
		Outcome:        calls.OutcomePending,
		CallSID:        sidPtr(res.CallSID),
		Role:           calls.RoleSeniorCallback,
	})
	return res, nil
}

// TestCall dials toNumber, or the configured test number, and records
// nothing.
func (s *Service) TestCall(ctx context.Context, toNumber string) (telephony.OutboundCallResult, error) {
	to := strings.TrimSpace(toNumber)
	if to == "" {
		to = s.testNumber
	}
	return s.dial(ctx, "TEST", to)
}

// ApplyProviderStatus moves a PENDING call to NO_ANSWER when Twilio reports
// a terminal failure. Unknown call SIDs are ignored.
func (s *Service) ApplyProviderStatus(ctx context.Context, sid, status string) error {
	outcome, ok := calls.OutcomeForProviderStatus(calls.ProviderStatus(strings.ToLower(status)))
	if !ok {
		return nil
	}
	call, updated, err := s.calls.UpdateCallOutcomeBySID(ctx, sid, calls.OutcomePending, outcome)
	if errors.Is(err, conversations.ErrCallNotFound) {
		logger.From(ctx).Debug("status callback for unknown call", "call_sid", sid)
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply provider status: %w", err)
	}
	if updated && call.Role == calls.RoleVolunteer {
		s.release(ctx, call.ConversationID)
	}
	return nil
}

func (s *Service) dial(ctx context.Context, role calls.Role, to string) (telephony.OutboundCallResult, error) {
	res, err := s.dialer.PlaceOutboundCall(ctx, telephony.OutboundCallRequest{ToNumber: to})
	switch {
	case err != nil:
		s.observe(role, "failed")
	case !res.OK:
		s.observe(role, "upstream_error")
	default:
		s.observe(role, "ok")
	}
	return res, err
}

// record stores the dialed call. The provider has already placed the call,
// so a write failure is logged rather than returned.
func (s *Service) record(ctx context.Context, nc conversations.NewCall) {
	if _, err := s.calls.LogConversationCall(ctx, nc); err != nil {
		logger.From(ctx).Error("record outbound call failed",
			"conversation_id", nc.ConversationID,
			"role", nc.Role,
			"err", err,
		)
	}
}

func (s *Service) release(ctx context.Context, conversationID int64) {
	if err := s.slots.Release(ctx, conversationID); err != nil {
		logger.From(ctx).Warn("release outbound slot failed", "conversation_id", conversationID, "err", err)
	}
}

func (s *Service) observe(role calls.Role, result string) {
	if s.OnCall != nil {
		s.OnCall(role, result)
	}
}

func sidPtr(sid string) *string {
	if sid == "" {
		return nil
	}
	return &sid
}
