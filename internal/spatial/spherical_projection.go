package spatial

import "math"

// ToLatLon converts Cartesian coordinates (x, y, z) to spherical (lat/lon in degrees)
func ToLatLon(x, y, z, radius float64) (lat, lon float64) {
	// Formula:
	// lat = arcsin(Z / R)
	// lon = arctan2(Y, X)

	sinLat := z / radius
	if sinLat > 1 {
		sinLat = 1
	} else if sinLat < -1 {
		sinLat = -1
	}

	latRad := math.Asin(sinLat)
	lonRad := math.Atan2(y, x)

	return radToDeg(latRad), radToDeg(lonRad)
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
