// Package aggregate produces the per-city/per-day final dataset from cleaned
// trip collections and cleaned weather observations.
package aggregate

import (
	"sort"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
)

// DailyAggregates groups a cleaned trip collection by the started_at calendar
// date and counts total, member, and casual rides. Output is sorted by date.
func DailyAggregates(city string, trips []domain.TripRecord) []domain.CityDaily {
	byDate := make(map[time.Time]*domain.CityDaily)
	for _, t := range trips {
		date := t.StartedAt.Truncate(24 * time.Hour)
		day, ok := byDate[date]
		if !ok {
			day = &domain.CityDaily{City: city, Date: date}
			byDate[date] = day
		}
		day.RideCount++
		switch t.MemberCasual {
		case "member":
			day.MemberCount++
		case "casual":
			day.CasualCount++
		}
	}

	rows := make([]domain.CityDaily, 0, len(byDate))
	for _, day := range byDate {
		rows = append(rows, *day)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

// MergeWeather left-joins daily trip aggregates with weather observations on
// (city, date). Aggregate rows without a matching observation keep a nil
// Weather; unmatched weather rows are dropped.
func MergeWeather(daily []domain.CityDaily, weather []domain.WeatherRecord) []domain.MergedDaily {
	type key struct {
		city string
		date string
	}
	byKey := make(map[key]domain.WeatherRecord, len(weather))
	for _, w := range weather {
		byKey[key{w.City, w.Date.Format(time.DateOnly)}] = w
	}

	merged := make([]domain.MergedDaily, 0, len(daily))
	for _, d := range daily {
		row := domain.MergedDaily{CityDaily: d}
		if w, ok := byKey[key{d.City, d.Date.Format(time.DateOnly)}]; ok {
			row.Weather = &w
		}
		merged = append(merged, row)
	}
	return merged
}
