package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Earth radii used to convert between distances and radians.
const (
	EarthRadiusMiles = 3963.2
	EarthRadiusKm    = 6378.1
	EarthRadiusM     = EarthRadiusKm * 1000
)

// Meter multipliers per unit for reported distances.
const (
	MetersToMiles = 0.000621371
	MetersToKm    = 0.001
)

// GeoPointType is the GeoJSON type of every stored location.
const GeoPointType = "Point"

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address,omitempty"`
	Description string     `json:"description,omitempty"`
}

// NewGeoPoint builds a point from latitude and longitude.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: GeoPointType, Coordinates: [2]float64{lng, lat}}
}

// Lat returns the latitude.
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

// Lng returns the longitude.
func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }

// Validate checks coordinate ranges.
func (p GeoPoint) Validate() error {
	if p.Type != "" && p.Type != GeoPointType {
		return NewValidationError("startLocation.type", "location type must be Point", ErrInvalidLocation)
	}
	if p.Lat() < -90 || p.Lat() > 90 || p.Lng() < -180 || p.Lng() > 180 {
		return NewValidationError("startLocation.coordinates", "coordinates are out of range", ErrInvalidLocation)
	}
	return nil
}

// ParseLatLng parses "lat,lng".
func ParseLatLng(s string) (GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return GeoPoint{}, fmt.Errorf("%w: expected lat,lng", ErrInvalidLocation)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: latitude %q", ErrInvalidLocation, parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: longitude %q", ErrInvalidLocation, parts[1])
	}
	p := NewGeoPoint(lat, lng)
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// DistanceUnit is the unit of a geo query.
type DistanceUnit string

const (
	UnitMiles      DistanceUnit = "mi"
	UnitKilometers DistanceUnit = "km"
)

// ParseDistanceUnit accepts "mi" or "km".
func ParseDistanceUnit(s string) (DistanceUnit, error) {
	switch u := DistanceUnit(strings.ToLower(s)); u {
	case UnitMiles, UnitKilometers:
		return u, nil
	}
	return "", fmt.Errorf("%w: unit must be mi or km", ErrInvalidLocation)
}

// RadiusRadians converts a distance in unit to an angular radius on the sphere.
func (u DistanceUnit) RadiusRadians(distance float64) float64 {
	if u == UnitMiles {
		return distance / EarthRadiusMiles
	}
	return distance / EarthRadiusKm
}

// Multiplier converts meters to unit.
func (u DistanceUnit) Multiplier() float64 {
	if u == UnitMiles {
		return MetersToMiles
	}
	return MetersToKm
}

// AngularDistance returns the great-circle angle between a and b in radians.
func AngularDistance(a, b GeoPoint) float64 {
	lat1, lat2 := radians(a.Lat()), radians(b.Lat())
	dLat := lat2 - lat1
	dLng := radians(b.Lng() - a.Lng())
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceMeters returns the haversine distance between a and b.
func DistanceMeters(a, b GeoPoint) float64 {
	return AngularDistance(a, b) * EarthRadiusM
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
