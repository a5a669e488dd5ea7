// Command validate performs offline integrity checks over the files a
// pipeline run produced: per-city cleaned trip CSVs, the aggregated bike
// data, and the merged bike+weather dataset. It verifies the cleaned-schema
// contract, the filter-stage guarantees (duration window, positive distance,
// geofence bounds when station data is available), and cross-file count
// consistency.
//
// Usage:
//
//	go run ./cmd/validate -cleaned-dir data/cleaned -raw-dir data/raw
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/aggregate"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/config"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/storage/csvfile"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cleanedDir := flag.String("cleaned-dir", "", "directory containing cleaned pipeline outputs")
	rawDir := flag.String("raw-dir", "", "raw data directory (optional, enables geofence checks)")
	cities := flag.String("cities", strings.Join(config.DefaultCityNames(), ","), "comma-separated cities to check")
	maxMinutes := flag.Float64("max-minutes", 24*60, "upper duration bound the pipeline ran with")
	flag.Parse()

	if *cleanedDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*cleanedDir, *rawDir, strings.Split(*cities, ","), *maxMinutes); code != 0 {
		os.Exit(code)
	}
}

func run(cleanedDir, rawDir string, cities []string, maxMinutes float64) int {
	var phases []*phase
	tripsByCity := make(map[string][]domain.TripRecord)

	for _, city := range cities {
		city = strings.TrimSpace(city)
		p := &phase{name: "cleaned trips: " + city}
		phases = append(phases, p)

		trips, err := readCleanedTrips(cleanedDir, city)
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		tripsByCity[city] = trips

		checkSchema(p, trips)
		checkDurations(p, trips, maxMinutes)
		checkDistances(p, trips)
		if rawDir != "" {
			checkGeofence(p, rawDir, city, trips)
		}
	}

	phases = append(phases, checkAggregates(cleanedDir, tripsByCity))

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      %s\n", e)
		}
	}
	if failed > 0 {
		fmt.Printf("\n%d of %d phases failed\n", failed, len(phases))
		return 1
	}
	fmt.Printf("\nall %d phases passed\n", len(phases))
	return 0
}

func readCleanedTrips(cleanedDir, city string) ([]domain.TripRecord, error) {
	path := filepath.Join(cleanedDir, city, city+"_cleaned_trips.csv")
	rows, err := csvfile.ReadRawTrips(path)
	if err != nil {
		return nil, err
	}
	trips := make([]domain.TripRecord, 0, len(rows))
	for _, row := range rows {
		t, err := domain.ParseTripRecord(row)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	if len(trips) == 0 {
		return nil, errors.New("cleaned file holds no trips")
	}
	return trips, nil
}

func checkSchema(p *phase, trips []domain.TripRecord) {
	seen := make(map[string]struct{}, len(trips))
	for _, t := range trips {
		if t.RideID == "" {
			p.errorf("empty ride_id")
			continue
		}
		if _, dup := seen[t.RideID]; dup {
			p.errorf("duplicate ride_id %s", t.RideID)
		}
		seen[t.RideID] = struct{}{}

		if t.RideableType == "" {
			p.errorf("ride %s: empty rideable_type", t.RideID)
		}
		if t.StartedAt.IsZero() || t.EndedAt.IsZero() {
			p.errorf("ride %s: missing timestamp", t.RideID)
		}
		if !t.Start.Valid || !t.End.Valid {
			p.errorf("ride %s: missing coordinate", t.RideID)
		}
		if t.MemberCasual != "member" && t.MemberCasual != "casual" {
			p.errorf("ride %s: member_casual %q", t.RideID, t.MemberCasual)
		}
	}
}

func checkDurations(p *phase, trips []domain.TripRecord, maxMinutes float64) {
	for _, t := range trips {
		d := t.DurationMinutes()
		if d < 0 || d > maxMinutes {
			p.errorf("ride %s: duration %.2f min outside [0, %.0f]", t.RideID, d, maxMinutes)
		}
	}
}

func checkDistances(p *phase, trips []domain.TripRecord) {
	distances := domain.TripDistances(trips)
	for i, t := range trips {
		if !(distances[i] > 0) {
			p.errorf("ride %s: non-positive distance %.6f km", t.RideID, distances[i])
		}
	}
}

func checkGeofence(p *phase, rawDir, city string, trips []domain.TripRecord) {
	stationPath := filepath.Join(rawDir, city, "station_data", "stations.csv")
	stations, err := csvfile.ReadStations(stationPath)
	if err != nil {
		p.errorf("stations unavailable, geofence unchecked: %v", err)
		return
	}
	box, err := domain.BoundsFromStations(stations)
	if err != nil {
		p.errorf("geofence unchecked: %v", err)
		return
	}
	for _, t := range trips {
		if !box.Contains(t.End) {
			p.errorf("ride %s: end (%.5f, %.5f) outside station bounds", t.RideID, t.End.Lat, t.End.Lng)
		}
	}
}

// checkAggregates recomputes the per-city/day aggregates from the cleaned
// trips and compares them against aggregated_bike_data.csv.
func checkAggregates(cleanedDir string, tripsByCity map[string][]domain.TripRecord) *phase {
	p := &phase{name: "aggregated bike data"}

	got, err := csvfile.ReadAggregated(filepath.Join(cleanedDir, "aggregated_bike_data.csv"))
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	want := make(map[string]domain.CityDaily)
	for city, trips := range tripsByCity {
		for _, day := range aggregate.DailyAggregates(city, trips) {
			want[city+"|"+day.Date.Format(time.DateOnly)] = day
		}
	}

	if len(got) != len(want) {
		p.errorf("row count: got %d, recomputed %d", len(got), len(want))
	}
	for _, row := range got {
		key := row.City + "|" + row.Date.Format(time.DateOnly)
		expect, ok := want[key]
		if !ok {
			p.errorf("%s: unexpected aggregate row", key)
			continue
		}
		if row.RideCount != expect.RideCount || row.MemberCount != expect.MemberCount || row.CasualCount != expect.CasualCount {
			p.errorf("%s: counts (%d,%d,%d) != recomputed (%d,%d,%d)",
				key, row.RideCount, row.MemberCount, row.CasualCount,
				expect.RideCount, expect.MemberCount, expect.CasualCount)
		}
	}
	return p
}
