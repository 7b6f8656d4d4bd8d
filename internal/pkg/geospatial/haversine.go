package geospatial

import "math"

const (
	earthRadiusKm     = 6371.0
	earthRadiusMeters = 6371000.0
)

// Haversine calculates the great-circle distance in kilometers between
// two points on a sphere with mean Earth radius 6371 km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// HaversineMeters is Haversine in meters.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return Haversine(lat1, lon1, lat2, lon2) * 1000
}

// MetersToLatDegrees converts a north-south distance to degrees of
// latitude.
func MetersToLatDegrees(meters float64) float64 {
	return meters / earthRadiusMeters * (180 / math.Pi)
}

// MetersToLonDegrees converts an east-west distance to degrees of
// longitude at the given reference latitude, compensating for meridian
// convergence. Callers should pass the more poleward latitude of their
// working area so the resulting step stays conservative.
func MetersToLonDegrees(meters, refLatDeg float64) float64 {
	return meters / (earthRadiusMeters * math.Cos(toRad(refLatDeg))) * (180 / math.Pi)
}

// ValidCoordinate reports whether lat/lon are finite and in range.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
