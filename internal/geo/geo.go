// Package geo resolves which zip codes lie within a radius of another.
package geo

import (
	"context"
	"errors"
	"math"
	"strings"
)

var (
	ErrInvalidZip = errors.New("invalid zip code")
	ErrUnknownZip = errors.New("unknown zip code")
)

// Directory returns every zip within miles of zip, including zip itself.
// Implementations return ErrInvalidZip for malformed input and
// ErrUnknownZip when the origin is not in the directory.
type Directory interface {
	Radius(ctx context.Context, zip string, miles float64) ([]string, error)
}

// Point is a zip code centroid.
type Point struct {
	Zip       string  `json:"zip"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NormalizeZip trims input and accepts 5-digit zips or ZIP+4 (the +4 part is
// dropped).
func NormalizeZip(zip string) (string, error) {
	z := strings.TrimSpace(zip)
	if i := strings.IndexByte(z, '-'); i == 5 && len(z) == 10 {
		z = z[:5]
	}
	if len(z) != 5 {
		return "", ErrInvalidZip
	}
	for _, r := range z {
		if r < '0' || r > '9' {
			return "", ErrInvalidZip
		}
	}
	return z, nil
}

const earthRadiusMiles = 3958.8

// DistanceMiles is the great-circle distance between two points.
func DistanceMiles(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DemoPoints are the centroids loaded by the seed command so the demo data
// resolves without a full zip import.
var DemoPoints = []Point{
	{Zip: "90210", Latitude: 34.0901, Longitude: -118.4065},
	{Zip: "90211", Latitude: 34.0650, Longitude: -118.3830},
	{Zip: "90212", Latitude: 34.0620, Longitude: -118.4020},
	{Zip: "90024", Latitude: 34.0633, Longitude: -118.4401},
	{Zip: "90069", Latitude: 34.0900, Longitude: -118.3800},
	{Zip: "90401", Latitude: 34.0160, Longitude: -118.4930},
	{Zip: "91101", Latitude: 34.1470, Longitude: -118.1390},
	{Zip: "10001", Latitude: 40.7506, Longitude: -73.9972},
	{Zip: "10002", Latitude: 40.7157, Longitude: -73.9863},
	{Zip: "10003", Latitude: 40.7317, Longitude: -73.9891},
	{Zip: "11201", Latitude: 40.6944, Longitude: -73.9906},
}
