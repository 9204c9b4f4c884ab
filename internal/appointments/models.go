package appointments

import "time"

type Status string

const (
	StatusRequested Status = "Requested"
	StatusScheduled Status = "Scheduled"
	StatusConfirmed Status = "Confirmed"
	StatusDeclined  Status = "Declined"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusRequested, StatusScheduled, StatusConfirmed, StatusDeclined, StatusCancelled, StatusCompleted}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID                    int64     `json:"id"`
	SeniorID              int64     `json:"senior_id"`
	VolunteerID           *int64    `json:"volunteer_id"`
	AppointmentDatetime   time.Time `json:"appointment_datetime"`
	DurationMinutes       *int64    `json:"duration_minutes"`
	Location              *string   `json:"location"`
	Status                Status    `json:"status"`
	NotesForVolunteer     *string   `json:"notes_for_volunteer"`
	FeedbackFromSenior    *string   `json:"feedback_from_senior"`
	FeedbackFromVolunteer *string   `json:"feedback_from_volunteer"`
	CreatedAt             time.Time `json:"created_at"`
}

// Listing is an appointment with the joined participant names.
type Listing struct {
	Appointment
	SeniorFirstName    *string `json:"senior_first_name"`
	SeniorLastName     *string `json:"senior_last_name"`
	VolunteerFirstName *string `json:"volunteer_first_name"`
	VolunteerLastName  *string `json:"volunteer_last_name"`
}

// NewAppointment is the insert shape shared by scheduling and finalize.
type NewAppointment struct {
	SeniorID            int64
	VolunteerID         *int64
	AppointmentDatetime time.Time
	Location            *string
	Status              Status
	NotesForVolunteer   *string
}
