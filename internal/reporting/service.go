package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Repository abstracts the counters behind the dashboard.
//
// IMPORTANT:
// - Seniors and volunteers count only active rows.
// - Upcoming means Scheduled or Confirmed, regardless of date.
type Repository interface {
	CountActiveSeniors(ctx context.Context) (int64, error)
	CountActiveVolunteers(ctx context.Context) (int64, error)
	CountUpcomingAppointments(ctx context.Context) (int64, error)
	CountCompletedAppointmentsSince(ctx context.Context, since time.Time) (int64, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service { return &Service{repo: repo, now: time.Now} }

// Stats runs the four counts concurrently. The first failure cancels the
// rest.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.repo == nil {
		return Stats{}, errors.New("reporting: repository not configured")
	}
	since := MonthStart(s.now())

	var out Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalSeniors, err = s.repo.CountActiveSeniors(gctx)
		return wrap("seniors", err)
	})
	g.Go(func() (err error) {
		out.ActiveVolunteers, err = s.repo.CountActiveVolunteers(gctx)
		return wrap("volunteers", err)
	})
	g.Go(func() (err error) {
		out.UpcomingAppointments, err = s.repo.CountUpcomingAppointments(gctx)
		return wrap("upcoming appointments", err)
	})
	g.Go(func() (err error) {
		out.CompletedThisMonth, err = s.repo.CountCompletedAppointmentsSince(gctx, since)
		return wrap("completed appointments", err)
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return out, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("count %s: %w", what, err)
}
