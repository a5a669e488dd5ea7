package domain

import "time"

// WeatherRecord is one city-day of daily weather observations. Measurement
// fields are pointers because the upstream archive omits values it never
// observed; cleaning requires TAvg and Prcp to be present.
type WeatherRecord struct {
	City string
	Date time.Time // date only, UTC midnight

	TAvg *float64 // mean temperature, °C
	TMin *float64
	TMax *float64
	Prcp *float64 // precipitation, mm
	Snow *float64
	Wdir *float64 // wind direction, degrees
	Wspd *float64 // wind speed, km/h
	Pres *float64 // sea-level pressure, hPa
}

// CityDaily is the per-city/per-day trip aggregate derived from a cleaned
// trip collection.
type CityDaily struct {
	City        string
	Date        time.Time
	RideCount   int
	MemberCount int
	CasualCount int
}

// MergedDaily joins a CityDaily row with its weather observation, when one
// exists for the same city and date. Weather stays nil for unmatched days
// (left join semantics).
type MergedDaily struct {
	CityDaily
	Weather *WeatherRecord
}
