// Package domain models bike-share trip, station, and weather records.
//
// # Data Sources
//
// Trip data comes from the monthly system-data archives published by each
// bike-share operator (Citi Bike, Divvy, Bluebikes, Capital Bikeshare) as
// zipped CSVs on S3. All four systems share the same thirteen-column trip
// schema:
//
//	ride_id, rideable_type, started_at, ended_at,
//	start_station_name, start_station_id, end_station_name, end_station_id,
//	start_lat, start_lng, end_lat, end_lng, member_casual
//
// Station data comes from each system's GBFS station_information feed (or the
// Chicago SODA open-data endpoint) and is reduced to lat/lng reference
// geometry for the service-area bounding box.
//
// # Raw Data Conventions
//
// Missing coordinates:
//
//	Operators encode an unknown dock position as the literal value 0.0.
//	A trip record with start_lat = 0.0 did not start on the equator; the
//	value is a sentinel for "missing". ParseTripRecord recodes 0.0 (and
//	empty strings) to an invalid Coord before any filtering runs, so the
//	missing-value filter never has to know about the sentinel.
//
// Timestamps:
//
//	"2006-01-02 15:04:05" local time, sometimes with a fractional-second
//	suffix ("2006-01-02 15:04:05.000"). Empty timestamps are treated as
//	missing; non-empty unparseable timestamps are a coercion error and
//	abort the city's run.
//
// Rider type:
//
//	member_casual is "member" (annual subscriber) or "casual" (day pass).
//	Anything else is a schema violation reported by the validator.
//
// # Geometry
//
// Haversine computes great-circle distance on a 6371 km sphere. Identical
// points yield exactly 0, which is why the distance filter uses a strict
// > 0 comparison to drop degenerate round-trips. NaN coordinates propagate
// through the formula; upstream filters remove them before distances are
// computed in bulk.
package domain
