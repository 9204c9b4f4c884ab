package matching

import (
	"context"
	"errors"
	"testing"

	"careshare/internal/geo"
	"careshare/internal/volunteers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFinder filters a fixed candidate list the way the stores do.
type fakeFinder struct {
	all     []volunteers.Candidate
	filters []volunteers.Filter
}

func (f *fakeFinder) SearchVolunteers(_ context.Context, flt volunteers.Filter) ([]volunteers.Candidate, error) {
	f.filters = append(f.filters, flt)
	var out []volunteers.Candidate
	for _, c := range f.all {
		if flt.Skill != "" && !contains(c.Skills, flt.Skill) {
			continue
		}
		if flt.Zips != nil && !contains(flt.Zips, c.ZipCode) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ringDirectory returns zips by radius threshold.
type ringDirectory map[int][]string

func (d ringDirectory) Radius(_ context.Context, zip string, miles float64) ([]string, error) {
	if zip == "00000" {
		return nil, geo.ErrUnknownZip
	}
	var out []string
	for r, zips := range d {
		if float64(r) <= miles {
			out = append(out, zips...)
		}
	}
	return out, nil
}

func TestEngine_SkillWithinRadius(t *testing.T) {
	finder := &fakeFinder{all: []volunteers.Candidate{
		{ID: 2, ZipCode: "90211", Skills: []string{"Gardening"}},
		{ID: 1, ZipCode: "90210", Skills: []string{"Driving"}},
	}}
	e := NewEngine(finder, ringDirectory{0: {"90210"}, 5: {"90211"}})

	res, err := e.Search(context.Background(), Input{Skill: "Gardening", Zip: "90210", Radius: 10})
	require.NoError(t, err)
	assert.Equal(t, TierSkillRadius, res.Tier)
	assert.Equal(t, 10, res.Radius)
	require.Len(t, res.Volunteers, 1)
	assert.Equal(t, int64(2), res.Volunteers[0].ID)
}

func TestEngine_ExpandsRadiusForSkill(t *testing.T) {
	finder := &fakeFinder{all: []volunteers.Candidate{
		{ID: 3, ZipCode: "91101", Skills: []string{"Driving"}},
		{ID: 1, ZipCode: "90210", Skills: []string{"Gardening"}},
	}}
	e := NewEngine(finder, ringDirectory{0: {"90210"}, 20: {"91101"}})

	res, err := e.Search(context.Background(), Input{Skill: "Driving", Zip: "90210", Radius: 10})
	require.NoError(t, err)
	assert.Equal(t, TierSkillExpanded, res.Tier)
	assert.Equal(t, 20, res.Radius, "10 and 15 are empty, 20 is the first hit")
	require.Len(t, res.Volunteers, 1)
	assert.Equal(t, int64(3), res.Volunteers[0].ID)
}

func TestEngine_ExpansionStopsAtBasePlusFifteen(t *testing.T) {
	assert.Equal(t, []int{5, 10, 15}, ExpansionSteps)
	finder := &fakeFinder{all: []volunteers.Candidate{
		{ID: 4, ZipCode: "92101", Skills: []string{"Driving"}},
	}}
	e := NewEngine(finder, ringDirectory{0: {"90210"}, 26: {"92101"}})

	res, err := e.Search(context.Background(), Input{Skill: "Driving", Zip: "90210", Radius: 10})
	require.NoError(t, err)
	assert.Equal(t, TierSkillAnywhere, res.Tier, "25 miles is the widest skilled ring")
	require.Len(t, res.Volunteers, 1)
	assert.Equal(t, int64(4), res.Volunteers[0].ID)
}

func TestEngine_FallsBackToAnyoneNearby(t *testing.T) {
	finder := &fakeFinder{all: []volunteers.Candidate{
		{ID: 1, ZipCode: "90210", Skills: []string{"Gardening"}},
	}}
	e := NewEngine(finder, ringDirectory{0: {"90210"}})

	res, err := e.Search(context.Background(), Input{Skill: "Tech Help", Zip: "90210"})
	require.NoError(t, err)
	assert.Equal(t, TierAnyRadius, res.Tier)
	assert.Len(t, res.Volunteers, 1)
}

func TestEngine_AnywhereTiers(t *testing.T) {
	finder := &fakeFinder{all: []volunteers.Candidate{
		{ID: 5, ZipCode: "10002", Skills: []string{"Tech Help"}},
		{ID: 4, ZipCode: "10001", Skills: []string{"Gardening"}},
	}}
	e := NewEngine(finder, ringDirectory{0: {"90210"}})

	res, err := e.Search(context.Background(), Input{Skill: "Tech Help", Zip: "90210"})
	require.NoError(t, err)
	assert.Equal(t, TierSkillAnywhere, res.Tier)
	assert.Equal(t, 0, res.Radius)
	assert.Len(t, res.Volunteers, 1)

	res, err = e.Search(context.Background(), Input{})
	require.NoError(t, err)
	assert.Equal(t, TierAnyAnywhere, res.Tier)
	assert.Len(t, res.Volunteers, 2)
}

func TestEngine_EmptyResultIsNotNil(t *testing.T) {
	e := NewEngine(&fakeFinder{}, ringDirectory{})
	res, err := e.Search(context.Background(), Input{})
	require.NoError(t, err)
	assert.NotNil(t, res.Volunteers)
	assert.Empty(t, res.Volunteers)
}

func TestEngine_BaseZipErrorIsReturned(t *testing.T) {
	finder := &fakeFinder{}
	e := NewEngine(finder, ringDirectory{})

	_, err := e.Search(context.Background(), Input{Skill: "Driving", Zip: "00000"})
	assert.True(t, errors.Is(err, geo.ErrUnknownZip))
	assert.Empty(t, finder.filters, "no query runs after a failed base lookup")
}
