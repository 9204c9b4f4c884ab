package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"careshare/internal/appointments"
	"careshare/internal/geo"
	"careshare/internal/skills"
)

type seedPerson struct {
	first, last, zip, phone, email string
	skills                         []string
}

var (
	seedSeniors = []seedPerson{
		{first: "Arthur", last: "Pendragon", zip: "90210", phone: "+12015551234"},
		{first: "Eleanor", last: "Vance", zip: "10001", phone: "+15558675309"},
	}
	seedVolunteers = []seedPerson{
		{first: "David", last: "Chen", zip: "90211", phone: "+19085555678", email: "david@example.com",
			skills: []string{skills.Gardening, skills.Companionship}},
		{first: "Maria", last: "Garcia", zip: "10002", phone: "+12125559999", email: "maria@example.com",
			skills: []string{skills.Driving, skills.GroceryShopping, skills.TechHelp}},
	}
)

const (
	seedAppointmentAt    = "2025-10-07 10:00:00+00"
	seedAppointmentNotes = "Need a ride to the community center for a social event."
)

// Seed loads the demo data. Running it twice leaves one copy of everything.
func (s *Store) Seed(ctx context.Context) error {
	return s.tx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, name := range skills.All {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO skills (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
				return fmt.Errorf("seed skill %s: %w", name, err)
			}
		}

		seniorIDs := make(map[string]int64, len(seedSeniors))
		for _, p := range seedSeniors {
			var id int64
			err := tx.QueryRowContext(ctx, `
				INSERT INTO seniors (first_name, last_name, zip_code, phone_number)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (phone_number) DO UPDATE SET updated_at = seniors.updated_at
				RETURNING id`, p.first, p.last, p.zip, p.phone).Scan(&id)
			if err != nil {
				return fmt.Errorf("seed senior %s: %w", p.first, err)
			}
			seniorIDs[p.first] = id
		}

		for _, p := range seedVolunteers {
			var id int64
			err := tx.QueryRowContext(ctx, `
				INSERT INTO volunteers (first_name, last_name, zip_code, email, phone_number)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
				RETURNING id`, p.first, p.last, p.zip, p.email, p.phone).Scan(&id)
			if err != nil {
				return fmt.Errorf("seed volunteer %s: %w", p.first, err)
			}
			for _, sk := range p.skills {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO volunteer_skills (volunteer_id, skill_id)
					SELECT $1, id FROM skills WHERE name = $2
					ON CONFLICT DO NOTHING`, id, sk); err != nil {
					return fmt.Errorf("seed volunteer skill %s: %w", sk, err)
				}
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO appointments (senior_id, appointment_datetime, status, notes_for_volunteer)
			SELECT $1, $2::timestamptz, $3, $4
			WHERE NOT EXISTS (
				SELECT 1 FROM appointments WHERE senior_id = $1 AND appointment_datetime = $2::timestamptz
			)`, seniorIDs["Arthur"], seedAppointmentAt, string(appointments.StatusRequested), seedAppointmentNotes); err != nil {
			return fmt.Errorf("seed appointment: %w", err)
		}

		return upsertZipPoints(ctx, tx, geo.DemoPoints)
	})
}
