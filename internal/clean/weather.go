package clean

import (
	"sort"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
)

// CleanWeather applies the weather-record cleaning rules: drop rows missing
// date, average temperature, or precipitation; drop rows whose maximum
// temperature is absent or below -100°C; deduplicate on (city, date) keeping
// the first occurrence. Calendar gaps between the earliest and latest
// observed dates are logged as a warning but do not remove anything.
func (c *Cleaner) CleanWeather(records []domain.WeatherRecord) []domain.WeatherRecord {
	kept := make([]domain.WeatherRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, r := range records {
		if r.Date.IsZero() || r.TAvg == nil || r.Prcp == nil {
			continue
		}
		if r.TMax == nil || *r.TMax < -100 {
			continue
		}
		key := r.City + "|" + r.Date.Format(time.DateOnly)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}

	c.logger.Info("weather cleaning applied",
		"removed", len(records)-len(kept),
		"remain", len(kept),
	)
	c.metrics.WeatherRowsRemoved.Add(float64(len(records) - len(kept)))

	if missing := missingDates(kept); len(missing) > 0 {
		c.logger.Warn("missing dates in weather data", "dates", missing)
	}

	return kept
}

// missingDates returns the dates between the overall min and max observation
// dates that no record covers, formatted YYYY-MM-DD and sorted.
func missingDates(records []domain.WeatherRecord) []string {
	if len(records) == 0 {
		return nil
	}

	covered := make(map[string]struct{}, len(records))
	minDate, maxDate := records[0].Date, records[0].Date
	for _, r := range records {
		covered[r.Date.Format(time.DateOnly)] = struct{}{}
		if r.Date.Before(minDate) {
			minDate = r.Date
		}
		if r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}

	var missing []string
	for d := minDate; !d.After(maxDate); d = d.AddDate(0, 0, 1) {
		if _, ok := covered[d.Format(time.DateOnly)]; !ok {
			missing = append(missing, d.Format(time.DateOnly))
		}
	}
	sort.Strings(missing)
	return missing
}
