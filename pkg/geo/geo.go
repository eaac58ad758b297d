// Package geo provides the geographic primitives used throughout skymap:
// positions, bounding boxes, great-circle helpers, and the Web-Mercator
// viewport projection that maps geographic points to screen pixels.
package geo

import "math"

// Constants for geographic calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the Earth's radius in kilometers (WGS84 mean radius)
	EarthRadiusKm = 6371.0

	// KmPerNauticalMile converts nautical miles to kilometers
	KmPerNauticalMile = 1.852
)

// Position represents a point on Earth's surface in the WGS84 system.
type Position struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64
}

// Valid reports whether the position carries usable coordinates.
// NaN or out-of-range values never enter the projection path.
func (p Position) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Bounds is a geographic rectangle in latitude/longitude.
type Bounds struct {
	South float64
	West  float64
	North float64
	East  float64
}

// Pad returns the bounds expanded by margin degrees on every side.
// Latitude is clamped to the poles; longitude is left unclamped because
// the viewports this serves never span the antimeridian.
func (b Bounds) Pad(margin float64) Bounds {
	padded := Bounds{
		South: b.South - margin,
		West:  b.West - margin,
		North: b.North + margin,
		East:  b.East + margin,
	}
	if padded.South < -90 {
		padded.South = -90
	}
	if padded.North > 90 {
		padded.North = 90
	}
	return padded
}

// Contains reports whether the position lies inside the bounds (inclusive).
func (b Bounds) Contains(p Position) bool {
	return p.Latitude >= b.South && p.Latitude <= b.North &&
		p.Longitude >= b.West && p.Longitude <= b.East
}

// Distance calculates the great-circle distance between two positions
// using the haversine formula. Returns kilometers.
func Distance(from, to Position) float64 {
	lat1 := from.Latitude * DegreesToRadians
	lat2 := to.Latitude * DegreesToRadians
	dLat := (to.Latitude - from.Latitude) * DegreesToRadians
	dLon := (to.Longitude - from.Longitude) * DegreesToRadians

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceNauticalMiles is Distance converted to nautical miles.
func DistanceNauticalMiles(from, to Position) float64 {
	return Distance(from, to) / KmPerNauticalMile
}

// Bearing calculates the initial great-circle bearing from one position
// to another in degrees (0 = North, 90 = East).
func Bearing(from, to Position) float64 {
	lat1 := from.Latitude * DegreesToRadians
	lat2 := to.Latitude * DegreesToRadians
	dLon := (to.Longitude - from.Longitude) * DegreesToRadians

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	bearing := math.Atan2(y, x) * RadiansToDegrees
	return math.Mod(bearing+360, 360)
}
