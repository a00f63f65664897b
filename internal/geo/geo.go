// Package geo holds the small amount of spherical math the client does
// locally; everything else is left to the server.
package geo

import "math"

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// ValidCoordinates reports whether latitude is in [-90,90] and longitude in
// [-180,180].
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidBounds reports whether both corners are valid and the box is not
// inverted on latitude. Longitude may wrap across the antimeridian.
func ValidBounds(minLat, minLon, maxLat, maxLon float64) bool {
	return ValidCoordinates(minLat, minLon) && ValidCoordinates(maxLat, maxLon) && minLat <= maxLat
}
