package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
)

var weatherColumns = []string{"city", "date", "tavg", "tmin", "tmax", "prcp", "snow", "wdir", "wspd", "pres"}

// WriteWeather persists daily weather observations, city and date first.
func WriteWeather(path string, records []domain.WeatherRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create weather dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create weather file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(weatherColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		rec := []string{
			r.City,
			r.Date.Format(time.DateOnly),
			formatOptFloat(r.TAvg),
			formatOptFloat(r.TMin),
			formatOptFloat(r.TMax),
			formatOptFloat(r.Prcp),
			formatOptFloat(r.Snow),
			formatOptFloat(r.Wdir),
			formatOptFloat(r.Wspd),
			formatOptFloat(r.Pres),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write weather row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadWeather reads a weather observations file written by WriteWeather.
func ReadWeather(path string) ([]domain.WeatherRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weather file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read weather header: %w", err)
	}
	col, err := headerIndex(header, weatherColumns)
	if err != nil {
		return nil, fmt.Errorf("weather file %s: %w", filepath.Base(path), err)
	}

	var records []domain.WeatherRecord
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read weather row: %w", err)
		}

		date, err := parseDate(field(rec, col["date"]))
		if err != nil {
			return nil, fmt.Errorf("weather date: %w", err)
		}

		wr := domain.WeatherRecord{City: field(rec, col["city"]), Date: date}
		for name, dst := range map[string]**float64{
			"tavg": &wr.TAvg, "tmin": &wr.TMin, "tmax": &wr.TMax,
			"prcp": &wr.Prcp, "snow": &wr.Snow,
			"wdir": &wr.Wdir, "wspd": &wr.Wspd, "pres": &wr.Pres,
		} {
			v, err := parseOptFloat(field(rec, col[name]))
			if err != nil {
				return nil, fmt.Errorf("weather %s: %w", name, err)
			}
			*dst = v
		}
		records = append(records, wr)
	}
	return records, nil
}
