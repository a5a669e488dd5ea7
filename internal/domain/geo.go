package domain

import (
	"errors"
	"math"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// ErrNoStations signals that a city has no reference geometry to build a
// service-area bounding box from. Filtering against an undefined box would
// silently pass or drop every trip, so this is surfaced as a distinct error.
var ErrNoStations = errors.New("no station records: bounding box undefined")

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees. Identical points return exactly 0; NaN
// inputs propagate per IEEE-754.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// TripDistances computes the start-to-end haversine distance for every trip
// in one pass, preserving input order. Bulk computation keeps the distance
// filter a whole-collection-in, whole-collection-out transform.
func TripDistances(trips []TripRecord) []float64 {
	distances := make([]float64, len(trips))
	for i, t := range trips {
		distances[i] = Haversine(t.Start.Lat, t.Start.Lng, t.End.Lat, t.End.Lng)
	}
	return distances
}

// BoundingBox is the closed lat/lng rectangle spanned by a city's stations.
type BoundingBox struct {
	LatMin float64
	LatMax float64
	LngMin float64
	LngMax float64
}

// BoundsFromStations computes the convex bounding box of the station
// collection. Returns ErrNoStations when the collection is empty.
func BoundsFromStations(stations []StationRecord) (BoundingBox, error) {
	if len(stations) == 0 {
		return BoundingBox{}, ErrNoStations
	}

	b := BoundingBox{
		LatMin: stations[0].Lat,
		LatMax: stations[0].Lat,
		LngMin: stations[0].Lng,
		LngMax: stations[0].Lng,
	}
	for _, s := range stations[1:] {
		b.LatMin = math.Min(b.LatMin, s.Lat)
		b.LatMax = math.Max(b.LatMax, s.Lat)
		b.LngMin = math.Min(b.LngMin, s.Lng)
		b.LngMax = math.Max(b.LngMax, s.Lng)
	}
	return b, nil
}

// Contains reports whether the coordinate falls within the box. Bounds are
// inclusive: a trip ending exactly on the box edge is inside.
func (b BoundingBox) Contains(c Coord) bool {
	return c.Lat >= b.LatMin && c.Lat <= b.LatMax &&
		c.Lng >= b.LngMin && c.Lng <= b.LngMax
}
