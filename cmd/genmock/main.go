// Command genmock generates a deterministic mock raw-data tree so the ETL
// can run end-to-end without network access (SKIP_INGEST=true). It writes
// per-city combined trip CSVs seeded with every defect class the cleaning
// pipeline removes (duplicates, missing values, 0.0 coordinate sentinels,
// out-of-bounds endpoints, marathon durations, zero-distance round-trips),
// plus station reference files and a weather file with known gaps.
//
// Usage:
//
//	go run ./cmd/genmock -out data/raw -month 202409 -trips 500
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/config"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/storage/csvfile"
)

// cityCenter anchors each city's synthetic stations and trips.
var cityCenter = map[string][2]float64{
	"NYC":     {40.7128, -74.0060},
	"Chicago": {41.8781, -87.6298},
	"Boston":  {42.3601, -71.0589},
	"Capital": {38.9072, -77.0369},
}

func main() {
	out := flag.String("out", "data/raw", "raw data directory to populate")
	month := flag.String("month", "202409", "archive month (YYYYMM)")
	tripCount := flag.Int("trips", 500, "clean trips to generate per city")
	seed := flag.Int64("seed", 1, "PRNG seed for reproducible fixtures")
	flag.Parse()

	monthStart, err := time.Parse("200601", *month)
	if err != nil {
		log.Fatalf("invalid -month %q", *month)
	}

	rng := rand.New(rand.NewSource(*seed))
	for _, city := range config.DefaultCityNames() {
		if err := genCity(rng, *out, city, *month, monthStart, *tripCount); err != nil {
			log.Fatalf("%s: %v", city, err)
		}
	}
	if err := genWeather(rng, *out, monthStart); err != nil {
		log.Fatalf("weather: %v", err)
	}
	log.Printf("mock raw data written to %s", *out)
}

func genCity(rng *rand.Rand, rawDir, city, month string, monthStart time.Time, tripCount int) error {
	center := cityCenter[city]

	stations := genStations(rng, city, center)
	stationPath := filepath.Join(rawDir, city, "station_data", "stations.csv")
	if err := csvfile.WriteStations(stationPath, stations); err != nil {
		return err
	}

	rows := genTrips(rng, city, center, monthStart, tripCount)
	tripPath := filepath.Join(rawDir, city, "trip_data", month, month+"-combined.csv")
	if err := writeRawTrips(tripPath, rows); err != nil {
		return err
	}

	log.Printf("%s: %d stations, %d raw trip rows", city, len(stations), len(rows))
	return nil
}

func genStations(rng *rand.Rand, city string, center [2]float64) []domain.StationRecord {
	stations := make([]domain.StationRecord, 40)
	for i := range stations {
		stations[i] = domain.StationRecord{
			ID:   fmt.Sprintf("%s-%03d", city, i),
			Name: fmt.Sprintf("%s Station %d", city, i),
			// ±0.1 degrees keeps the box roughly city-sized.
			Lat: center[0] + (rng.Float64()-0.5)*0.2,
			Lng: center[1] + (rng.Float64()-0.5)*0.2,
		}
	}
	return stations
}

// genTrips produces tripCount clean rows followed by one row of each defect
// class, so every filter stage has work to do.
func genTrips(rng *rand.Rand, city string, center [2]float64, monthStart time.Time, tripCount int) []domain.RawTripRow {
	rows := make([]domain.RawTripRow, 0, tripCount+6)
	for i := 0; i < tripCount; i++ {
		rows = append(rows, genCleanTrip(rng, city, i, center, monthStart))
	}

	// Duplicate of the first ride.
	dup := rows[0]
	dup.RideableType = "electric_bike"
	rows = append(rows, dup)

	// Missing end timestamp.
	broken := genCleanTrip(rng, city, tripCount, center, monthStart)
	broken.EndedAt = ""
	rows = append(rows, broken)

	// 0.0 coordinate sentinel.
	sentinel := genCleanTrip(rng, city, tripCount+1, center, monthStart)
	sentinel.StartLat = "0.0"
	rows = append(rows, sentinel)

	// Ends far outside the station bounding box.
	outside := genCleanTrip(rng, city, tripCount+2, center, monthStart)
	outside.EndLat = formatCoord(center[0] + 5)
	rows = append(rows, outside)

	// Runs longer than a day.
	long := genCleanTrip(rng, city, tripCount+3, center, monthStart)
	start, _ := time.Parse("2006-01-02 15:04:05", long.StartedAt)
	long.EndedAt = start.Add(25 * time.Hour).Format("2006-01-02 15:04:05")
	rows = append(rows, long)

	// Round-trip to the same dock coordinates.
	zero := genCleanTrip(rng, city, tripCount+4, center, monthStart)
	zero.EndLat, zero.EndLng = zero.StartLat, zero.StartLng
	rows = append(rows, zero)

	return rows
}

func genCleanTrip(rng *rand.Rand, city string, i int, center [2]float64, monthStart time.Time) domain.RawTripRow {
	started := monthStart.
		AddDate(0, 0, rng.Intn(28)).
		Add(time.Duration(rng.Intn(24*60)) * time.Minute)
	ended := started.Add(time.Duration(5+rng.Intn(55)) * time.Minute)

	memberCasual := "member"
	if rng.Intn(3) == 0 {
		memberCasual = "casual"
	}
	rideable := "classic_bike"
	if rng.Intn(2) == 0 {
		rideable = "electric_bike"
	}

	stationIdx := rng.Intn(40)
	return domain.RawTripRow{
		RideID:           fmt.Sprintf("%s%08d", city[:1], i),
		RideableType:     rideable,
		StartedAt:        started.Format("2006-01-02 15:04:05"),
		EndedAt:          ended.Format("2006-01-02 15:04:05"),
		StartStationName: fmt.Sprintf("%s Station %d", city, stationIdx),
		StartStationID:   fmt.Sprintf("%s-%03d", city, stationIdx),
		EndStationName:   fmt.Sprintf("%s Station %d", city, (stationIdx+1)%40),
		EndStationID:     fmt.Sprintf("%s-%03d", city, (stationIdx+1)%40),
		StartLat:         formatCoord(center[0] + (rng.Float64()-0.5)*0.18),
		StartLng:         formatCoord(center[1] + (rng.Float64()-0.5)*0.18),
		EndLat:           formatCoord(center[0] + (rng.Float64()-0.5)*0.18),
		EndLng:           formatCoord(center[1] + (rng.Float64()-0.5)*0.18),
		MemberCasual:     memberCasual,
	}
}

// genWeather writes one observation per city per day with a deliberate gap
// (one missing date) and one row missing precipitation.
func genWeather(rng *rand.Rand, rawDir string, monthStart time.Time) error {
	var records []domain.WeatherRecord
	days := monthStart.AddDate(0, 1, 0).Sub(monthStart) / (24 * time.Hour)

	for _, city := range config.DefaultCityNames() {
		for d := 0; d < int(days); d++ {
			if d == 10 {
				continue // calendar gap the cleaner should warn about
			}
			rec := domain.WeatherRecord{
				City: city,
				Date: monthStart.AddDate(0, 0, d),
				TAvg: ptr(10 + rng.Float64()*15),
				TMin: ptr(5 + rng.Float64()*10),
				TMax: ptr(15 + rng.Float64()*15),
				Prcp: ptr(rng.Float64() * 20),
				Wspd: ptr(rng.Float64() * 30),
			}
			if d == 20 {
				rec.Prcp = nil // dropped by the missing-value rule
			}
			records = append(records, rec)
		}
	}

	return csvfile.WriteWeather(filepath.Join(rawDir, "weather_data.csv"), records)
}

func writeRawTrips(path string, rows []domain.RawTripRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString("ride_id,rideable_type,started_at,ended_at," +
		"start_station_name,start_station_id,end_station_name,end_station_id," +
		"start_lat,start_lng,end_lat,end_lng,member_casual\n"); err != nil {
		return err
	}
	for _, r := range rows {
		line := fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			r.RideID, r.RideableType, r.StartedAt, r.EndedAt,
			r.StartStationName, r.StartStationID, r.EndStationName, r.EndStationID,
			r.StartLat, r.StartLng, r.EndLat, r.EndLng, r.MemberCasual)
		if _, err := f.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func ptr(v float64) *float64 { return &v }
