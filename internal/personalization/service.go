package personalization

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"careshare/internal/conversations"
	"careshare/internal/seniors"
	"careshare/internal/volunteers"
	"careshare/pkg/logger"
)

type SeniorLookup interface {
	FindSeniorByPhone(ctx context.Context, phone string) (seniors.Senior, error)
	GetSenior(ctx context.Context, id int64) (seniors.Senior, error)
}

type ConversationLookup interface {
	GetConversation(ctx context.Context, id int64) (conversations.Conversation, error)
	FindCallBySID(ctx context.Context, sid string) (conversations.Call, error)
}

type VolunteerLookup interface {
	GetVolunteer(ctx context.Context, id int64) (volunteers.Volunteer, error)
}

// Service answers the call-start webhook with a prompt override for the
// agent.
type Service struct {
	Phones        seniors.PhoneNormalizer
	Seniors       SeniorLookup
	Conversations ConversationLookup
	Volunteers    VolunteerLookup
	Prompts       *Prompts
	Timezone      string
	Now           func() time.Time

	// OnResolve observes the mode chosen for each call.
	OnResolve func(m Mode)
}

type Request struct {
	CallerID       string
	AgentID        string
	CalledNumber   string
	CallSID        string
	Mode           Mode
	ConversationID *int64
	VolunteerID    *int64
}

type Response struct {
	Type                       string         `json:"type"`
	DynamicVariables           map[string]any `json:"dynamic_variables"`
	ConversationConfigOverride ConfigOverride `json:"conversation_config_override"`
}

type ConfigOverride struct {
	Agent AgentOverride `json:"agent"`
}

type AgentOverride struct {
	Prompt       PromptOverride `json:"prompt"`
	FirstMessage string         `json:"first_message"`
	Language     string         `json:"language"`
}

type PromptOverride struct {
	Prompt string `json:"prompt"`
}

const initiationType = "conversation_initiation_client_data"

// callContext is what the lookups found. Any part may be missing.
type callContext struct {
	caller       string
	senior       *seniors.Senior
	conversation *conversations.Conversation
	volunteer    *volunteers.Volunteer
	callRole     string
}

func (s *Service) Personalize(ctx context.Context, req Request) (Response, error) {
	cc := s.lookup(ctx, req)

	mode := resolveMode(req.Mode, cc.callRole)
	if s.OnResolve != nil {
		s.OnResolve(mode)
	}

	rec := s.Prompts.Record(mode)
	prompt, err := Render(rec, s.vars(cc))
	if err != nil {
		return Response{}, err
	}

	logger.From(ctx).Info("personalization resolved",
		"mode", mode,
		"call_sid", req.CallSID,
		"senior_found", cc.senior != nil,
		"conversation_found", cc.conversation != nil,
	)

	return Response{
		Type:             initiationType,
		DynamicVariables: map[string]any{},
		ConversationConfigOverride: ConfigOverride{Agent: AgentOverride{
			Prompt:       PromptOverride{Prompt: prompt},
			FirstMessage: rec.FirstMessage,
			Language:     "en",
		}},
	}, nil
}

// resolveMode prefers an explicit mode, then the role of the dialed call.
func resolveMode(explicit Mode, callRole string) Mode {
	if explicit.Valid() {
		return explicit
	}
	switch callRole {
	case "VOLUNTEER":
		return ModeVolunteerOutbound
	case "SENIOR_CALLBACK":
		return ModeSeniorCallback
	default:
		return ModeInbound
	}
}

// lookup is best effort: the agent still needs a prompt when the store is
// unavailable, so failures are logged and the part is left empty.
func (s *Service) lookup(ctx context.Context, req Request) callContext {
	log := logger.From(ctx)
	cc := callContext{caller: strings.TrimSpace(req.CallerID)}

	if s.Phones != nil {
		if p, err := s.Phones.Normalize(req.CallerID); err == nil {
			cc.caller = p
		}
	}
	if cc.caller != "" {
		sr, err := s.Seniors.FindSeniorByPhone(ctx, cc.caller)
		switch {
		case err == nil:
			cc.senior = &sr
		case !errors.Is(err, seniors.ErrNotFound):
			log.Warn("personalization senior lookup failed", "err", err)
		}
	}

	convID := req.ConversationID
	volID := req.VolunteerID
	if sid := strings.TrimSpace(req.CallSID); sid != "" {
		call, err := s.Conversations.FindCallBySID(ctx, sid)
		switch {
		case err == nil:
			cc.callRole = string(call.Role)
			id := call.ConversationID
			convID = &id
			if call.VolunteerID != nil {
				volID = call.VolunteerID
			}
		case !errors.Is(err, conversations.ErrCallNotFound):
			log.Warn("personalization call lookup failed", "call_sid", sid, "err", err)
		}
	}

	if convID != nil {
		conv, err := s.Conversations.GetConversation(ctx, *convID)
		switch {
		case err == nil:
			cc.conversation = &conv
		case !errors.Is(err, conversations.ErrNotFound):
			log.Warn("personalization conversation lookup failed", "conversation_id", *convID, "err", err)
		}
	}
	if volID != nil {
		v, err := s.Volunteers.GetVolunteer(ctx, *volID)
		switch {
		case err == nil:
			cc.volunteer = &v
		case !errors.Is(err, volunteers.ErrNotFound):
			log.Warn("personalization volunteer lookup failed", "volunteer_id", *volID, "err", err)
		}
	}

	if cc.senior == nil && cc.conversation != nil && cc.conversation.SeniorID != nil {
		if sr, err := s.Seniors.GetSenior(ctx, *cc.conversation.SeniorID); err == nil {
			cc.senior = &sr
		}
	}
	return cc
}

func (s *Service) vars(cc callContext) map[string]string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	tz := s.Timezone
	if tz == "" {
		tz = "America/New_York"
	}

	v := map[string]string{
		"now":          now().UTC().Format(time.RFC3339),
		"timezone":     tz,
		"caller_phone": cc.caller,
	}
	if sr := cc.senior; sr != nil {
		v["senior_name"] = sr.FullName()
		v["senior_id"] = strconv.FormatInt(sr.ID, 10)
		if !sr.AddressComplete() {
			v["address_incomplete"] = "true"
		}
	}
	if conv := cc.conversation; conv != nil {
		if conv.MatchedSkill != nil {
			v["matched_skill"] = *conv.MatchedSkill
		}
		v["nearby_count"] = strconv.Itoa(len(conv.NearbyVolunteers))
	}
	if vol := cc.volunteer; vol != nil {
		v["volunteer_name"] = vol.FullName()
	}
	return v
}
