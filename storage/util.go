package storage

import (
	"math"

	"tidbyt.dev/gtfsstats/model"
)

// Great circle distance in km.
func HaversineDistance(aLat, aLon, bLat, bLon float64) float64 {
	const earthRadiusKm = 6371

	aLatRad := aLat * math.Pi / 180
	aLonRad := aLon * math.Pi / 180
	bLatRad := bLat * math.Pi / 180
	bLonRad := bLon * math.Pi / 180
	deltaLat := aLatRad - bLatRad
	deltaLon := aLonRad - bLonRad

	a := math.Cos(aLatRad)*math.Cos(bLatRad)*math.Pow(math.Sin(deltaLon/2), 2) + math.Pow(math.Sin(deltaLat/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return c * earthRadiusKm
}

// Index of the shape point closest to lat/lon, or -1 if there are no
// points. Ties resolve to the lowest index.
func NearestShapePoint(points []*model.ShapePoint, lat, lon float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, p := range points {
		d := HaversineDistance(p.Lat, p.Lon, lat, lon)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
