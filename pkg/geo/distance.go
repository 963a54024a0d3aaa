// Package geo computes great-circle distances on a spherical earth.
package geo

import "math"

const (
	// EarthRadiusMeters is the mean earth radius used by the haversine formula
	EarthRadiusMeters = 6371e3

	// FeetPerMeter converts meters to international feet
	FeetPerMeter = 3.28084
)

// Point is a latitude/longitude pair in degrees
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Point) float64 {
	phi1 := toRadians(a.Lat)
	phi2 := toRadians(b.Lat)
	dPhi := toRadians(b.Lat - a.Lat)
	dLambda := toRadians(b.Lon - a.Lon)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// DistanceFeet returns the haversine distance between a and b in feet.
func DistanceFeet(a, b Point) float64 {
	return Distance(a, b) * FeetPerMeter
}

// WithinFeet reports whether b lies within maxFeet of a, inclusive.
func WithinFeet(a, b Point, maxFeet float64) (float64, bool) {
	d := DistanceFeet(a, b)
	return d, d <= maxFeet
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
