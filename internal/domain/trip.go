package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawTripRow is one untyped row from a monthly trip CSV. Every field arrives
// as a string; coercion happens once in ParseTripRecord.
type RawTripRow struct {
	RideID           string
	RideableType     string
	StartedAt        string
	EndedAt          string
	StartStationName string
	StartStationID   string
	EndStationName   string
	EndStationID     string
	StartLat         string
	StartLng         string
	EndLat           string
	EndLng           string
	MemberCasual     string
}

// Coord is a WGS-84 coordinate with an explicit presence flag. The raw data
// encodes a missing dock position as 0.0, which is recoded to Valid=false at
// the coercion boundary so no later stage has to treat zero specially.
type Coord struct {
	Lat   float64
	Lng   float64
	Valid bool
}

// TripRecord is the typed representation of one bike-share ride.
type TripRecord struct {
	RideID           string
	RideableType     string
	StartedAt        time.Time
	EndedAt          time.Time
	StartStationName string
	StartStationID   string
	EndStationName   string
	EndStationID     string
	Start            Coord
	End              Coord
	MemberCasual     string
}

// DurationMinutes returns the signed trip duration in minutes. Negative when
// ended_at precedes started_at; the duration filter removes those.
func (t TripRecord) DurationMinutes() float64 {
	return t.EndedAt.Sub(t.StartedAt).Minutes()
}

// tripTimeLayouts covers the timestamp formats seen across the four systems.
// Citi Bike started emitting fractional seconds in 2024; the others did not.
var tripTimeLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// ParseTripRecord coerces a raw CSV row into a TripRecord. Empty timestamp or
// coordinate fields become zero values handled by the missing-value filter;
// non-empty values that fail to parse are a coercion error, fatal for the
// city's run rather than silently dropped.
func ParseTripRecord(row RawTripRow) (TripRecord, error) {
	startedAt, err := parseTripTime(row.StartedAt)
	if err != nil {
		return TripRecord{}, fmt.Errorf("ride %s: started_at: %w", row.RideID, err)
	}
	endedAt, err := parseTripTime(row.EndedAt)
	if err != nil {
		return TripRecord{}, fmt.Errorf("ride %s: ended_at: %w", row.RideID, err)
	}

	start, err := parseCoord(row.StartLat, row.StartLng)
	if err != nil {
		return TripRecord{}, fmt.Errorf("ride %s: start coordinate: %w", row.RideID, err)
	}
	end, err := parseCoord(row.EndLat, row.EndLng)
	if err != nil {
		return TripRecord{}, fmt.Errorf("ride %s: end coordinate: %w", row.RideID, err)
	}

	return TripRecord{
		RideID:           strings.TrimSpace(row.RideID),
		RideableType:     strings.TrimSpace(row.RideableType),
		StartedAt:        startedAt,
		EndedAt:          endedAt,
		StartStationName: strings.TrimSpace(row.StartStationName),
		StartStationID:   strings.TrimSpace(row.StartStationID),
		EndStationName:   strings.TrimSpace(row.EndStationName),
		EndStationID:     strings.TrimSpace(row.EndStationID),
		Start:            start,
		End:              end,
		MemberCasual:     strings.TrimSpace(row.MemberCasual),
	}, nil
}

// parseTripTime parses a trip timestamp. Empty input returns the zero time
// (missing, removed later); unparseable input is an error.
func parseTripTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range tripTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// parseCoord parses a lat/lng string pair into a Coord. The pair is invalid
// when either component is empty or equal to the 0.0 missing-value sentinel.
func parseCoord(latStr, lngStr string) (Coord, error) {
	lat, latOK, err := parseCoordComponent(latStr)
	if err != nil {
		return Coord{}, err
	}
	lng, lngOK, err := parseCoordComponent(lngStr)
	if err != nil {
		return Coord{}, err
	}
	if !latOK || !lngOK {
		return Coord{}, nil
	}
	return Coord{Lat: lat, Lng: lng, Valid: true}, nil
}

func parseCoordComponent(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("unparseable coordinate %q", s)
	}
	if v == 0 {
		// 0.0 is the operators' missing-coordinate sentinel.
		return 0, false, nil
	}
	return v, true, nil
}
