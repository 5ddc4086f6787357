package geospatial

import "math"

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	minLat = math.Max(lat-latDelta, -90)
	maxLat = math.Min(lat+latDelta, 90)
	return minLat, lon - lonDelta, maxLat, lon + lonDelta
}

// DiagonalKm is the great-circle length of a region's south-west to north-east
// diagonal in kilometres; zero for the empty region.
func DiagonalKm(r Region) float64 {
	if r.IsEmpty() {
		return 0
	}
	east := r.West() + r.LngSpan()
	return Haversine(r.South(), r.West(), r.North(), east) / 1000
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
