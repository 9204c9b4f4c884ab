package volunteers

import (
	"context"
	"errors"
	"strings"

	"careshare/internal/geo"
)

var ErrNotFound = errors.New("volunteer not found")

// DefaultRadiusMiles applies when a search names a zip but no radius.
const DefaultRadiusMiles = 10

type Repository interface {
	ListVolunteers(ctx context.Context) ([]Volunteer, error)
	GetVolunteer(ctx context.Context, id int64) (Volunteer, error)
	// SearchVolunteers returns active volunteers matching f, id descending.
	SearchVolunteers(ctx context.Context, f Filter) ([]Candidate, error)
}

type Service struct {
	repo Repository
	dir  geo.Directory
}

func NewService(repo Repository, dir geo.Directory) *Service {
	return &Service{repo: repo, dir: dir}
}

type SearchInput struct {
	Skill  string
	Zip    string
	Radius int
}

// Search filters active volunteers by skill and by zip radius. A zip the
// directory rejects surfaces as geo.ErrInvalidZip or geo.ErrUnknownZip.
func (s *Service) Search(ctx context.Context, in SearchInput) ([]Candidate, error) {
	f := Filter{Skill: in.Skill}
	if zip := strings.TrimSpace(in.Zip); zip != "" {
		radius := in.Radius
		if radius <= 0 {
			radius = DefaultRadiusMiles
		}
		zips, err := s.dir.Radius(ctx, zip, float64(radius))
		if err != nil {
			return nil, err
		}
		f.Zips = zips
	}
	return s.repo.SearchVolunteers(ctx, f)
}

// Nearby lists the zip codes within radius miles of zip.
func (s *Service) Nearby(ctx context.Context, zip string, radius float64) ([]string, error) {
	return s.dir.Radius(ctx, zip, radius)
}

func (s *Service) Get(ctx context.Context, id int64) (Volunteer, error) {
	return s.repo.GetVolunteer(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Volunteer, error) {
	return s.repo.ListVolunteers(ctx)
}
