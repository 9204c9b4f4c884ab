package volunteers

import (
	"strings"
	"time"
)

type BackgroundCheckStatus string

const (
	BackgroundNotStarted BackgroundCheckStatus = "Not Started"
	BackgroundInProgress BackgroundCheckStatus = "In Progress"
	BackgroundCompleted  BackgroundCheckStatus = "Completed"
	BackgroundFailed     BackgroundCheckStatus = "Failed"
)

type Volunteer struct {
	ID                    int64                 `json:"id"`
	FirstName             string                `json:"first_name"`
	LastName              string                `json:"last_name"`
	PhoneNumber           string                `json:"phone_number"`
	Email                 string                `json:"email"`
	Bio                   *string               `json:"bio"`
	ZipCode               string                `json:"zip_code"`
	BackgroundCheckStatus BackgroundCheckStatus `json:"background_check_status"`
	IsActive              bool                  `json:"is_active"`
	CreatedAt             time.Time             `json:"created_at"`
}

func (v Volunteer) FullName() string {
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// Candidate is the list shape returned by searches and stored in
// conversation snapshots.
type Candidate struct {
	ID          int64    `json:"id"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	PhoneNumber string   `json:"phone_number"`
	ZipCode     string   `json:"zip_code"`
	Skills      []string `json:"skills"`
}

// Filter narrows a search over active volunteers.
// An empty Skill matches every volunteer. A nil Zips applies no zip filter;
// a non-nil Zips keeps only volunteers whose zip is in it.
type Filter struct {
	Skill string
	Zips  []string
}
