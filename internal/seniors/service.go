package seniors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"careshare/internal/audit"
)

var ErrNotFound = errors.New("senior not found")

// Repository is implemented by the store packages.
type Repository interface {
	ListSeniors(ctx context.Context) ([]Senior, error)
	GetSenior(ctx context.Context, id int64) (Senior, error)
	FindSeniorByPhone(ctx context.Context, phone string) (Senior, error)
	UpsertSenior(ctx context.Context, in UpsertInput) (Senior, error)
}

// PhoneNormalizer turns raw caller input into E.164.
type PhoneNormalizer interface {
	Normalize(raw string) (string, error)
}

type Service struct {
	repo   Repository
	phones PhoneNormalizer
	audit  *audit.Service
}

func NewService(repo Repository, phones PhoneNormalizer, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, phones: phones, audit: auditSvc}
}

// Upsert normalizes the phone and creates or updates the senior it names.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (Senior, error) {
	normalized, err := s.phones.Normalize(in.PhoneNumber)
	if err != nil {
		return Senior{}, err
	}
	in.PhoneNumber = normalized
	in.Email = CleanEmail(in.Email)

	out, err := s.repo.UpsertSenior(ctx, in)
	if err != nil {
		return Senior{}, fmt.Errorf("upsert senior: %w", err)
	}
	s.audit.SeniorUpserted(ctx, out.ID)
	return out, nil
}

// FindByPhone normalizes raw and looks the senior up. ErrNotFound when absent.
func (s *Service) FindByPhone(ctx context.Context, raw string) (Senior, error) {
	normalized, err := s.phones.Normalize(raw)
	if err != nil {
		return Senior{}, err
	}
	return s.repo.FindSeniorByPhone(ctx, normalized)
}

func (s *Service) Get(ctx context.Context, id int64) (Senior, error) {
	return s.repo.GetSenior(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Senior, error) {
	return s.repo.ListSeniors(ctx)
}

// CleanEmail trims the address; blank becomes nil.
func CleanEmail(email *string) *string {
	if email == nil {
		return nil
	}
	v := strings.TrimSpace(*email)
	if v == "" {
		return nil
	}
	return &v
}
