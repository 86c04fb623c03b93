package pricing

import "math"

const earthRadiusKm = 6371.0

// DefaultDistanceKm is assumed when either side of a trip has no coordinates.
const DefaultDistanceKm = 3.5

// DistanceKm returns the haversine distance between two coordinates.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Zone is a circular delivery area with a fixed price.
type Zone struct {
	Lat        float64
	Lng        float64
	RadiusKm   float64
	FixedPrice float64
}

// ZoneFee returns the fixed price of the first zone containing the point.
// The second return is false when no zone matches and the distance formula
// should be used instead.
func ZoneFee(lat, lng float64, zones []Zone) (float64, bool) {
	for _, z := range zones {
		if z.RadiusKm <= 0 {
			continue
		}
		if DistanceKm(lat, lng, z.Lat, z.Lng) <= z.RadiusKm {
			return z.FixedPrice, true
		}
	}
	return 0, false
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
