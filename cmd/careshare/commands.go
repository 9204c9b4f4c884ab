package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"careshare/internal/auth"
	"careshare/internal/config"
	"careshare/internal/rbac"
	"careshare/internal/store/postgres"
	"careshare/pkg/logger"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "careshare",
		Short:         "Operational commands for the CareShare API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newZipsCmd(), newTokenCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, log *slog.Logger, s *postgres.Store) error {
				if down {
					return s.MigrateDown(ctx, log)
				}
				return s.MigrateUp(ctx, log)
			})
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert skills, demo seniors, volunteers and zip centroids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, log *slog.Logger, s *postgres.Store) error {
				if err := s.Seed(ctx); err != nil {
					return err
				}
				log.Info("seed complete")
				return nil
			})
		},
	}
}

func newZipsCmd() *cobra.Command {
	zips := &cobra.Command{
		Use:   "zips",
		Short: "Manage the zip code directory",
	}

	var file string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Load zip,latitude,longitude rows from a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			return withStore(cmd.Context(), func(ctx context.Context, log *slog.Logger, s *postgres.Store) error {
				n, err := s.ImportZipCodes(ctx, f)
				if err != nil {
					return fmt.Errorf("import %s: %w", file, err)
				}
				log.Info("zip codes imported", "file", file, "rows", n)
				return nil
			})
		},
	}
	imp.Flags().StringVarP(&file, "file", "f", "", "CSV file to import")
	_ = imp.MarkFlagRequired("file")

	zips.AddCommand(imp)
	return zips
}

func newTokenCmd() *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Manage API access tokens",
	}

	var (
		subject string
		role    string
		ttl     time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign an access token for the agent or the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch role {
			case rbac.RoleAdmin, rbac.RoleCoordinator, rbac.RoleAgent:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := config.LoadAuth()
			if err != nil {
				return err
			}
			m, err := auth.NewManager(cfg)
			if err != nil {
				return err
			}
			tok, err := m.Issue(time.Now(), subject, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	issue.Flags().StringVar(&subject, "subject", "", "token subject, such as the agent name")
	issue.Flags().StringVar(&role, "role", rbac.RoleAgent, "admin, coordinator or agent")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime; 0 uses JWT_ACCESS_TTL")
	_ = issue.MarkFlagRequired("subject")

	token.AddCommand(issue)
	return token
}

// withStore loads config, opens Postgres and runs fn.
func withStore(ctx context.Context, fn func(ctx context.Context, log *slog.Logger, s *postgres.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	db, err := postgres.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(logger.With(ctx, log), log, postgres.New(db))
}
