package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"careshare/internal/volunteers"
)

const volunteerColumns = `id, first_name, last_name, phone_number, email, bio, zip_code, background_check_status, is_active, created_at`

func scanVolunteer(r rowScanner) (volunteers.Volunteer, error) {
	var v volunteers.Volunteer
	err := r.Scan(&v.ID, &v.FirstName, &v.LastName, &v.PhoneNumber, &v.Email, &v.Bio,
		&v.ZipCode, &v.BackgroundCheckStatus, &v.IsActive, &v.CreatedAt)
	return v, err
}

func (s *Store) ListVolunteers(ctx context.Context) ([]volunteers.Volunteer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+volunteerColumns+` FROM volunteers ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	defer rows.Close()

	out := make([]volunteers.Volunteer, 0)
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) GetVolunteer(ctx context.Context, id int64) (volunteers.Volunteer, error) {
	v, err := scanVolunteer(s.db.QueryRowContext(ctx, `SELECT `+volunteerColumns+` FROM volunteers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return volunteers.Volunteer{}, volunteers.ErrNotFound
	}
	return v, err
}

func (s *Store) SearchVolunteers(ctx context.Context, f volunteers.Filter) ([]volunteers.Candidate, error) {
	if f.Zips != nil && len(f.Zips) == 0 {
		return []volunteers.Candidate{}, nil
	}

	var (
		where []string
		args  []any
	)
	where = append(where, "v.is_active = TRUE")
	if f.Skill != "" {
		args = append(args, f.Skill)
		where = append(where, `EXISTS (
			SELECT 1 FROM volunteer_skills vs2
			JOIN skills s2 ON s2.id = vs2.skill_id
			WHERE vs2.volunteer_id = v.id AND s2.name = $`+strconv.Itoa(len(args))+`)`)
	}
	if f.Zips != nil {
		args = append(args, f.Zips)
		where = append(where, "v.zip_code = ANY($"+strconv.Itoa(len(args))+")")
	}

	query := `
		SELECT v.id, v.first_name, v.last_name, v.phone_number, v.zip_code,
		       COALESCE(json_agg(s.name ORDER BY s.name) FILTER (WHERE s.name IS NOT NULL), '[]'::json)
		FROM volunteers v
		LEFT JOIN volunteer_skills vs ON vs.volunteer_id = v.id
		LEFT JOIN skills s ON s.id = vs.skill_id
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY v.id
		ORDER BY v.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search volunteers: %w", err)
	}
	defer rows.Close()

	out := make([]volunteers.Candidate, 0)
	for rows.Next() {
		var (
			c         volunteers.Candidate
			skillsRaw []byte
		)
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.PhoneNumber, &c.ZipCode, &skillsRaw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(skillsRaw, &c.Skills); err != nil {
			return nil, fmt.Errorf("decode volunteer skills: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
