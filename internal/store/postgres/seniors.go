package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"careshare/internal/seniors"
	"careshare/pkg/utils"
)

const seniorColumns = `id, first_name, last_name, phone_number, email, street_address, city, state, zip_code, is_active, created_at, updated_at`

func scanSenior(r rowScanner) (seniors.Senior, error) {
	var sr seniors.Senior
	err := r.Scan(&sr.ID, &sr.FirstName, &sr.LastName, &sr.PhoneNumber, &sr.Email,
		&sr.StreetAddress, &sr.City, &sr.State, &sr.ZipCode, &sr.IsActive, &sr.CreatedAt, &sr.UpdatedAt)
	return sr, err
}

func (s *Store) ListSeniors(ctx context.Context) ([]seniors.Senior, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+seniorColumns+` FROM seniors ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list seniors: %w", err)
	}
	defer rows.Close()

	out := make([]seniors.Senior, 0)
	for rows.Next() {
		sr, err := scanSenior(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (s *Store) GetSenior(ctx context.Context, id int64) (seniors.Senior, error) {
	sr, err := scanSenior(s.db.QueryRowContext(ctx, `SELECT `+seniorColumns+` FROM seniors WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return seniors.Senior{}, seniors.ErrNotFound
	}
	return sr, err
}

func (s *Store) FindSeniorByPhone(ctx context.Context, phone string) (seniors.Senior, error) {
	sr, err := scanSenior(s.db.QueryRowContext(ctx, `SELECT `+seniorColumns+` FROM seniors WHERE phone_number = $1`, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return seniors.Senior{}, seniors.ErrNotFound
	}
	return sr, err
}

func (s *Store) UpsertSenior(ctx context.Context, in seniors.UpsertInput) (seniors.Senior, error) {
	return upsertSenior(ctx, s.db, in)
}

// upsertSenior inserts by phone or updates the fields that are non-nil.
func upsertSenior(ctx context.Context, q utils.Querier, in seniors.UpsertInput) (seniors.Senior, error) {
	return scanSenior(q.QueryRowContext(ctx, `
		INSERT INTO seniors (first_name, last_name, phone_number, email, street_address, city, state, zip_code)
		VALUES (COALESCE($1::text, ''), COALESCE($2::text, ''), $3, $4, $5, $6, $7, $8)
		ON CONFLICT (phone_number) DO UPDATE SET
			first_name     = COALESCE($1::text, seniors.first_name),
			last_name      = COALESCE($2::text, seniors.last_name),
			email          = COALESCE($4, seniors.email),
			street_address = COALESCE($5, seniors.street_address),
			city           = COALESCE($6, seniors.city),
			state          = COALESCE($7, seniors.state),
			zip_code       = COALESCE($8, seniors.zip_code),
			updated_at     = NOW()
		RETURNING `+seniorColumns,
		in.FirstName, in.LastName, in.PhoneNumber, in.Email, in.StreetAddress, in.City, in.State, in.ZipCode,
	))
}
