package calls

import "time"

// Outcome is the result of one voice-agent call.
type Outcome string

const (
	OutcomeAccepted  Outcome = "ACCEPTED"
	OutcomeDeclined  Outcome = "DECLINED"
	OutcomeNoAnswer  Outcome = "NO_ANSWER"
	OutcomeVoicemail Outcome = "VOICEMAIL"
	// OutcomePending marks a dialed call whose result is not known yet.
	OutcomePending Outcome = "PENDING"
)

// Loggable reports whether an agent may record o as a final outcome.
func (o Outcome) Loggable() bool {
	switch o {
	case OutcomeAccepted, OutcomeDeclined, OutcomeNoAnswer, OutcomeVoicemail:
		return true
	default:
		return false
	}
}

// Role says who a conversation call was placed to.
type Role string

const (
	RoleVolunteer      Role = "VOLUNTEER"
	RoleSeniorCallback Role = "SENIOR_CALLBACK"
)

// Attempt is a row of the legacy call_attempts log, kept alongside the
// per-conversation call log.
type Attempt struct {
	ID          int64     `json:"id"`
	SeniorID    int64     `json:"senior_id"`
	VolunteerID int64     `json:"volunteer_id"`
	Outcome     Outcome   `json:"outcome"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProviderStatus is a Twilio call status as reported in status callbacks.
type ProviderStatus string

const (
	ProviderStatusQueued     ProviderStatus = "queued"
	ProviderStatusRinging    ProviderStatus = "ringing"
	ProviderStatusInProgress ProviderStatus = "in-progress"
	ProviderStatusCompleted  ProviderStatus = "completed"
	ProviderStatusBusy       ProviderStatus = "busy"
	ProviderStatusFailed     ProviderStatus = "failed"
	ProviderStatusNoAnswer   ProviderStatus = "no-answer"
	ProviderStatusCanceled   ProviderStatus = "canceled"
)

// OutcomeForProviderStatus maps terminal failures to NO_ANSWER. Other
// statuses leave the outcome to the agent, so ok is false.
func OutcomeForProviderStatus(s ProviderStatus) (Outcome, bool) {
	switch s {
	case ProviderStatusNoAnswer, ProviderStatusBusy, ProviderStatusFailed, ProviderStatusCanceled:
		return OutcomeNoAnswer, true
	default:
		return "", false
	}
}
