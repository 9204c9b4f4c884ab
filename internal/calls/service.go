package calls

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidOutcome = errors.New("calls: invalid outcome")

type Repository interface {
	CreateCallAttempt(ctx context.Context, a Attempt) (Attempt, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// LogOutcome appends an attempt to the legacy call log.
func (s *Service) LogOutcome(ctx context.Context, a Attempt) (Attempt, error) {
	if !a.Outcome.Loggable() {
		return Attempt{}, ErrInvalidOutcome
	}
	out, err := s.repo.CreateCallAttempt(ctx, a)
	if err != nil {
		return Attempt{}, fmt.Errorf("log call attempt: %w", err)
	}
	return out, nil
}
