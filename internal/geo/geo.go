// Package geo checks whether a report's location falls inside the service's
// coverage area.
package geo

import "math"

const earthRadiusKM = 6371

// Fence is a circular coverage area.
type Fence struct {
	Lat      float64
	Lon      float64
	RadiusKM float64
}

// DistanceKM returns the great-circle distance between two points (haversine).
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// Contains reports whether the point lies within the fence.
func (f Fence) Contains(lat, lon float64) bool {
	return DistanceKM(f.Lat, f.Lon, lat, lon) <= f.RadiusKM
}

func rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
