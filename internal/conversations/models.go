package conversations

import (
	"time"

	"careshare/internal/calls"
	"careshare/internal/volunteers"
)

type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusScheduled Status = "SCHEDULED"
)

// Conversation is one inbound senior request and the volunteers it
// considered.
type Conversation struct {
	ID                     int64                  `json:"id"`
	SeniorID               *int64                 `json:"senior_id"`
	CallerPhoneNumber      string                 `json:"caller_phone_number"`
	RequestDetails         string                 `json:"request_details"`
	MatchedSkill           *string                `json:"matched_skill"`
	NearbyVolunteers       []volunteers.Candidate `json:"nearby_volunteers"`
	Status                 Status                 `json:"status"`
	ScheduledAppointmentID *int64                 `json:"scheduled_appointment_id"`
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
}

// Call is a conversation_calls row. VolunteerID is nil for senior callbacks.
type Call struct {
	ID             int64         `json:"id"`
	ConversationID int64         `json:"conversation_id"`
	VolunteerID    *int64        `json:"volunteer_id"`
	Outcome        calls.Outcome `json:"outcome"`
	Notes          *string       `json:"notes"`
	CallSID        *string       `json:"call_sid"`
	Role           calls.Role    `json:"role"`
	CreatedAt      time.Time     `json:"created_at"`
}

type AcceptedVolunteer struct {
	VolunteerID int64  `json:"volunteer_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type NewConversation struct {
	SeniorID          *int64
	CallerPhoneNumber string
	RequestDetails    string
	MatchedSkill      *string
	NearbyVolunteers  []volunteers.Candidate
}

type NewCall struct {
	ConversationID int64
	VolunteerID    *int64
	Outcome        calls.Outcome
	Notes          *string
	CallSID        *string
	Role           calls.Role
}

// Detail is a conversation with its calls, newest first.
type Detail struct {
	Conversation Conversation `json:"conversation"`
	Calls        []Call       `json:"calls"`
}
