package matching

import (
	"context"
	"errors"
	"strings"

	"careshare/internal/geo"
	"careshare/internal/volunteers"
	"careshare/pkg/logger"
)

// Tier names the step of the cascade that produced a result.
type Tier string

const (
	TierSkillRadius   Tier = "skill_radius"
	TierSkillExpanded Tier = "skill_expanded"
	TierAnyRadius     Tier = "any_radius"
	TierSkillAnywhere Tier = "skill_anywhere"
	TierAnyAnywhere   Tier = "any_anywhere"
)

// ExpansionSteps are added to the base radius, in order, when no skilled
// volunteer is found inside it.
var ExpansionSteps = []int{5, 10, 15}

const DefaultRadiusMiles = 10

// Finder is the volunteer query the cascade runs at each tier.
type Finder interface {
	SearchVolunteers(ctx context.Context, f volunteers.Filter) ([]volunteers.Candidate, error)
}

// Engine picks the volunteers to consider for an inbound request.
//
// Priority:
//  1. skill within the base radius
//  2. skill within each expanded radius
//  3. anyone within the base radius
//  4. skill anywhere
//  5. anyone
//
// The first tier with results wins. Return the decision only; no writes.
type Engine struct {
	Volunteers Finder
	Zips       geo.Directory
}

func NewEngine(finder Finder, dir geo.Directory) *Engine {
	return &Engine{Volunteers: finder, Zips: dir}
}

type Input struct {
	Skill  string
	Zip    string
	Radius int
}

type Result struct {
	Volunteers []volunteers.Candidate `json:"volunteers"`
	Tier       Tier                   `json:"tier"`
	// Radius is the radius in miles that produced the result, 0 for the
	// anywhere tiers.
	Radius int `json:"radius"`
}

func (e *Engine) Search(ctx context.Context, in Input) (Result, error) {
	if e.Volunteers == nil {
		return Result{}, errors.New("matching: volunteer finder not configured")
	}
	radius := in.Radius
	if radius <= 0 {
		radius = DefaultRadiusMiles
	}
	zip := strings.TrimSpace(in.Zip)
	log := logger.From(ctx)

	var baseZips []string
	if zip != "" {
		if e.Zips == nil {
			return Result{}, errors.New("matching: zip directory not configured")
		}
		z, err := e.Zips.Radius(ctx, zip, float64(radius))
		if err != nil {
			return Result{}, err
		}
		baseZips = z
	}

	// 1) skill within the base radius
	if in.Skill != "" && zip != "" {
		res, err := e.try(ctx, volunteers.Filter{Skill: in.Skill, Zips: baseZips}, TierSkillRadius, radius)
		if err != nil || len(res.Volunteers) > 0 {
			return res, err
		}

		// 2) skill within expanded radii
		for _, extra := range ExpansionSteps {
			r := radius + extra
			zips, err := e.Zips.Radius(ctx, zip, float64(r))
			if err != nil {
				log.Debug("radius expansion skipped", "zip", zip, "radius", r, "err", err)
				continue
			}
			res, err := e.try(ctx, volunteers.Filter{Skill: in.Skill, Zips: zips}, TierSkillExpanded, r)
			if err != nil || len(res.Volunteers) > 0 {
				return res, err
			}
		}
	}

	// 3) anyone within the base radius
	if zip != "" {
		res, err := e.try(ctx, volunteers.Filter{Zips: baseZips}, TierAnyRadius, radius)
		if err != nil || len(res.Volunteers) > 0 {
			return res, err
		}
	}

	// 4) skill anywhere
	if in.Skill != "" {
		res, err := e.try(ctx, volunteers.Filter{Skill: in.Skill}, TierSkillAnywhere, 0)
		if err != nil || len(res.Volunteers) > 0 {
			return res, err
		}
	}

	// 5) anyone
	return e.try(ctx, volunteers.Filter{}, TierAnyAnywhere, 0)
}

func (e *Engine) try(ctx context.Context, f volunteers.Filter, tier Tier, radius int) (Result, error) {
	found, err := e.Volunteers.SearchVolunteers(ctx, f)
	if err != nil {
		return Result{}, err
	}
	if found == nil {
		found = []volunteers.Candidate{}
	}
	return Result{Volunteers: found, Tier: tier, Radius: radius}, nil
}
