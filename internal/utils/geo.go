package utils

import (
	"fmt"
	"math"
	"strconv"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ParseLatLng parses the decimal-string coordinates stored on jobs and
// provider profiles.
func ParseLatLng(lat, lng string) (float64, float64, error) {
	latF, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lat %q", lat)
	}
	lngF, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lng %q", lng)
	}
	if latF < -90 || latF > 90 || lngF < -180 || lngF > 180 {
		return 0, 0, fmt.Errorf("coordinates out of range")
	}
	return latF, lngF, nil
}
