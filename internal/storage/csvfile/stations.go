package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
)

var stationColumns = []string{"station_id", "name", "lat", "lng"}

// WriteStations persists a city's station reference geometry.
func WriteStations(path string, stations []domain.StationRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create station dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create station file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(stationColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range stations {
		rec := []string{s.ID, s.Name, formatFloat(s.Lat), formatFloat(s.Lng)}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write station row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadStations reads a station reference file. Rows with unparseable
// coordinates are an error, not silently skipped, because a wrong bounding
// box corrupts the geofence stage.
func ReadStations(path string) ([]domain.StationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open station file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read station header: %w", err)
	}
	col, err := headerIndex(header, []string{"lat", "lng"})
	if err != nil {
		return nil, fmt.Errorf("station file %s: %w", filepath.Base(path), err)
	}

	var stations []domain.StationRecord
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read station row: %w", err)
		}

		lat, err := strconv.ParseFloat(field(rec, col["lat"]), 64)
		if err != nil {
			return nil, fmt.Errorf("station lat: %w", err)
		}
		lng, err := strconv.ParseFloat(field(rec, col["lng"]), 64)
		if err != nil {
			return nil, fmt.Errorf("station lng: %w", err)
		}

		s := domain.StationRecord{Lat: lat, Lng: lng}
		if i, ok := col["station_id"]; ok {
			s.ID = field(rec, i)
		}
		if i, ok := col["name"]; ok {
			s.Name = field(rec, i)
		}
		stations = append(stations, s)
	}
	return stations, nil
}
