package domain

import "math"

// EarthRadiusMeters is the mean earth radius used for spherical distances.
// The spherical model stays within 0.5% of the WGS84 ellipsoid.
const EarthRadiusMeters = 6371008.8

// Point is a longitude/latitude pair in degrees.
type Point struct {
	Lng float64
	Lat float64
}

// Validate checks that the point lies on the globe.
func (p Point) Validate() error {
	if math.IsNaN(p.Lng) || math.IsNaN(p.Lat) {
		return Validationf("coordinates must be numbers")
	}
	if p.Lng < -180 || p.Lng > 180 {
		return Validationf("longitude must be between -180 and 180, got %v", p.Lng)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return Validationf("latitude must be between -90 and 90, got %v", p.Lat)
	}
	return nil
}

// DistanceMeters returns the great-circle (haversine) distance between p and q.
func (p Point) DistanceMeters(q Point) float64 {
	lat1 := toRadians(p.Lat)
	lat2 := toRadians(q.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(q.Lng - p.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
