package seniors

import (
	"strings"
	"time"
)

type Senior struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	PhoneNumber   string    `json:"phone_number"`
	Email         *string   `json:"email"`
	StreetAddress *string   `json:"street_address"`
	City          *string   `json:"city"`
	State         *string   `json:"state"`
	ZipCode       *string   `json:"zip_code"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpsertInput creates or updates a senior keyed by PhoneNumber.
// Nil fields keep the stored value on update.
type UpsertInput struct {
	FirstName     *string
	LastName      *string
	PhoneNumber   string
	Email         *string
	StreetAddress *string
	City          *string
	State         *string
	ZipCode       *string
}

func (s Senior) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// AddressComplete reports whether street, city, state and zip are all set.
func (s Senior) AddressComplete() bool {
	for _, p := range []*string{s.StreetAddress, s.City, s.State, s.ZipCode} {
		if deref(p) == "" {
			return false
		}
	}
	return true
}

// Location joins the non-empty address parts with ", ".
func (s Senior) Location() string {
	var parts []string
	for _, p := range []*string{s.StreetAddress, s.City, s.State, s.ZipCode} {
		if v := deref(p); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

// Zip returns the stored zip code or "".
func (s Senior) Zip() string { return deref(s.ZipCode) }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
