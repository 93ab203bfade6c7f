package geo

import (
	"fmt"
	"math"

	"github.com/tidwall/geodesic"
)

// Point is a WGS84 coordinate pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// NewPoint validates and creates a Point.
func NewPoint(lat, lon float64) (Point, error) {
	p := Point{Latitude: lat, Longitude: lon}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate checks that latitude is in [-90,90] and longitude in [-180,180].
func (p Point) Validate() error {
	if !ValidateCoordinates(p.Latitude, p.Longitude) {
		return fmt.Errorf("coordinates out of range: lat=%v lon=%v", p.Latitude, p.Longitude)
	}
	return nil
}

// DistanceKm returns the ellipsoidal geodesic distance to q in kilometers.
func (p Point) DistanceKm(q Point) float64 {
	return DistanceKm(p, q)
}

// DistanceKm computes the WGS84 geodesic distance between a and b in kilometers
// (Karney's algorithm, sub-millimeter accuracy).
func DistanceKm(a, b Point) float64 {
	var meters float64
	geodesic.WGS84.Inverse(a.Latitude, a.Longitude, b.Latitude, b.Longitude, &meters, nil, nil)
	return meters / 1000
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
// NaN fails both comparisons and is rejected.
func ValidateCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
