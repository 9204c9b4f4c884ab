package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeZip(t *testing.T) {
	z, err := NormalizeZip(" 90210 ")
	require.NoError(t, err)
	assert.Equal(t, "90210", z)

	z, err = NormalizeZip("90210-1234")
	require.NoError(t, err)
	assert.Equal(t, "90210", z)

	for _, bad := range []string{"", "9021", "902100", "abcde", "90 10"} {
		_, err := NormalizeZip(bad)
		assert.ErrorIs(t, err, ErrInvalidZip, bad)
	}
}

func TestDistanceMiles(t *testing.T) {
	la := Point{Latitude: 34.0522, Longitude: -118.2437}
	nyc := Point{Latitude: 40.7128, Longitude: -74.0060}
	d := DistanceMiles(la, nyc)
	assert.InDelta(t, 2445, d, 15)
	assert.Zero(t, DistanceMiles(la, la))
}

func TestMemoryDirectory_Radius(t *testing.T) {
	dir := NewMemoryDirectory(DemoPoints...)
	ctx := context.Background()

	zips, err := dir.Radius(ctx, "90210", 10)
	require.NoError(t, err)
	assert.Equal(t, "90210", zips[0], "origin is always first")
	assert.Contains(t, zips, "90211")
	assert.NotContains(t, zips, "10001")

	zips, err = dir.Radius(ctx, "90210", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"90210"}, zips)

	_, err = dir.Radius(ctx, "99999", 10)
	assert.True(t, errors.Is(err, ErrUnknownZip))

	_, err = dir.Radius(ctx, "bad", 10)
	assert.True(t, errors.Is(err, ErrInvalidZip))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "careshare:zipradius:90210:10", cacheKey("90210", 10))
	assert.Equal(t, "careshare:zipradius:90210:12.5", cacheKey("90210", 12.5))
}
