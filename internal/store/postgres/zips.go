package postgres

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"careshare/internal/geo"
)

// ZipDirectory answers radius queries from the zip_codes table.
type ZipDirectory struct {
	db *sql.DB
}

func NewZipDirectory(db *sql.DB) *ZipDirectory { return &ZipDirectory{db: db} }

const radiusQuery = `
	WITH origin AS (SELECT latitude, longitude FROM zip_codes WHERE zip = $1)
	SELECT z.zip
	FROM zip_codes z, origin o
	WHERE 2 * 3958.8 * ASIN(LEAST(1, SQRT(
		POWER(SIN(RADIANS(z.latitude - o.latitude) / 2), 2) +
		COS(RADIANS(o.latitude)) * COS(RADIANS(z.latitude)) *
		POWER(SIN(RADIANS(z.longitude - o.longitude) / 2), 2)
	))) <= $2
	ORDER BY z.zip`

func (d *ZipDirectory) Radius(ctx context.Context, zip string, miles float64) ([]string, error) {
	z, err := geo.NormalizeZip(zip)
	if err != nil {
		return nil, err
	}

	var exists bool
	if err := d.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM zip_codes WHERE zip = $1)`, z).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup zip: %w", err)
	}
	if !exists {
		return nil, geo.ErrUnknownZip
	}

	rows, err := d.db.QueryContext(ctx, radiusQuery, z, miles)
	if err != nil {
		return nil, fmt.Errorf("radius query: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var zip string
		if err := rows.Scan(&zip); err != nil {
			return nil, err
		}
		out = append(out, zip)
	}
	return out, rows.Err()
}

// ParseZipCSV reads zip,latitude,longitude rows. A first row whose latitude
// is not a number is treated as a header.
func ParseZipCSV(r io.Reader) ([]geo.Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var out []geo.Point
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if line == 1 && latErr != nil {
			continue
		}
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if latErr != nil || lonErr != nil {
			return nil, fmt.Errorf("line %d: invalid coordinates", line)
		}
		zip, err := geo.NormalizeZip(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, geo.Point{Zip: zip, Latitude: lat, Longitude: lon})
	}
}

// ImportZipCodes upserts every row of a zip CSV in one transaction and
// returns the number of rows written.
func (s *Store) ImportZipCodes(ctx context.Context, r io.Reader) (int, error) {
	points, err := ParseZipCSV(r)
	if err != nil {
		return 0, err
	}
	if err := s.tx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return upsertZipPoints(ctx, tx, points)
	}); err != nil {
		return 0, err
	}
	return len(points), nil
}

func upsertZipPoints(ctx context.Context, tx *sql.Tx, points []geo.Point) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO zip_codes (zip, latitude, longitude) VALUES ($1, $2, $3)
		ON CONFLICT (zip) DO UPDATE SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.Zip, p.Latitude, p.Longitude); err != nil {
			return fmt.Errorf("upsert zip %s: %w", p.Zip, err)
		}
	}
	return nil
}
