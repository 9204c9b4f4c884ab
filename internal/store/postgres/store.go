// Package postgres implements every repository interface over database/sql
// with the pgx stdlib driver. Multi-statement writes run in one transaction.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log/slog"
	"time"

	"careshare/internal/appointments"
	"careshare/internal/audit"
	"careshare/internal/calls"
	"careshare/internal/conversations"
	"careshare/internal/geo"
	"careshare/internal/reporting"
	"careshare/internal/seniors"
	"careshare/internal/volunteers"
	"careshare/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

//go:embed migrations/*.sql
var migrationFiles embed.FS

var (
	_ seniors.Repository       = (*Store)(nil)
	_ volunteers.Repository    = (*Store)(nil)
	_ appointments.Repository  = (*Store)(nil)
	_ conversations.Repository = (*Store)(nil)
	_ calls.Repository         = (*Store)(nil)
	_ audit.Repository         = (*Store)(nil)
	_ reporting.Repository     = (*Store)(nil)
	_ geo.Directory            = (*ZipDirectory)(nil)
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store { return &Store{db: db} }

// Open connects with the pgx driver and pings.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	return utils.OpenPostgres(ctx, DriverName, dsn, utils.PostgresPoolConfig{})
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	return utils.HealthCheck(ctx, s.db, 3*time.Second)
}

// Migrations returns the embedded goose migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

func (s *Store) MigrateUp(ctx context.Context, log *slog.Logger) error {
	return utils.MigrateUp(ctx, s.db, Migrations(), log)
}

func (s *Store) MigrateDown(ctx context.Context, log *slog.Logger) error {
	return utils.MigrateDown(ctx, s.db, Migrations(), log)
}

func (s *Store) tx(ctx context.Context, fn utils.TxFunc) error {
	return utils.WithTx(ctx, s.db, nil, fn)
}

type rowScanner interface {
	Scan(dest ...any) error
}
