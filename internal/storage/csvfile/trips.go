// Package csvfile reads and writes the pipeline's tabular interchange files:
// raw and cleaned trip CSVs, station reference CSVs, weather observations,
// and the aggregated outputs. All readers are header-mapped so column order
// in source files does not matter.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
)

// tripTimeFormat is the timestamp layout written to cleaned trip files.
const tripTimeFormat = "2006-01-02 15:04:05"

// tripColumns is the exact column set of a cleaned trip file, matching the
// raw operator schema.
var tripColumns = []string{
	"ride_id", "rideable_type", "started_at", "ended_at",
	"start_station_name", "start_station_id", "end_station_name", "end_station_id",
	"start_lat", "start_lng", "end_lat", "end_lng", "member_casual",
}

// ReadRawTrips reads an operator trip CSV into untyped rows. Coercion is the
// caller's job; this function only maps columns by header name.
func ReadRawTrips(path string) ([]domain.RawTripRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trip file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // some operator exports carry ragged trailing columns

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read trip header: %w", err)
	}
	col, err := headerIndex(header, tripColumns)
	if err != nil {
		return nil, fmt.Errorf("trip file %s: %w", filepath.Base(path), err)
	}

	var rows []domain.RawTripRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trip row: %w", err)
		}
		rows = append(rows, domain.RawTripRow{
			RideID:           field(rec, col["ride_id"]),
			RideableType:     field(rec, col["rideable_type"]),
			StartedAt:        field(rec, col["started_at"]),
			EndedAt:          field(rec, col["ended_at"]),
			StartStationName: field(rec, col["start_station_name"]),
			StartStationID:   field(rec, col["start_station_id"]),
			EndStationName:   field(rec, col["end_station_name"]),
			EndStationID:     field(rec, col["end_station_id"]),
			StartLat:         field(rec, col["start_lat"]),
			StartLng:         field(rec, col["start_lng"]),
			EndLat:           field(rec, col["end_lat"]),
			EndLng:           field(rec, col["end_lng"]),
			MemberCasual:     field(rec, col["member_casual"]),
		})
	}
	return rows, nil
}

// WriteCleanedTrips persists a cleaned collection to
// <cleanedDir>/<city>/<city>_cleaned_trips.csv and returns the written path.
func WriteCleanedTrips(cleanedDir, city string, trips []domain.TripRecord) (string, error) {
	cityDir := filepath.Join(cleanedDir, city)
	if err := os.MkdirAll(cityDir, 0o755); err != nil {
		return "", fmt.Errorf("create city dir: %w", err)
	}
	path := filepath.Join(cityDir, city+"_cleaned_trips.csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create cleaned file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tripColumns); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, t := range trips {
		rec := []string{
			t.RideID,
			t.RideableType,
			t.StartedAt.Format(tripTimeFormat),
			t.EndedAt.Format(tripTimeFormat),
			t.StartStationName,
			t.StartStationID,
			t.EndStationName,
			t.EndStationID,
			formatFloat(t.Start.Lat),
			formatFloat(t.Start.Lng),
			formatFloat(t.End.Lat),
			formatFloat(t.End.Lng),
			t.MemberCasual,
		}
		if err := w.Write(rec); err != nil {
			return "", fmt.Errorf("write trip row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush cleaned file: %w", err)
	}
	return path, nil
}

// headerIndex maps required column names to their positions in the header.
func headerIndex(header, required []string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return col, nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func parseOptFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("unparseable number %q", s)
	}
	return &v, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
