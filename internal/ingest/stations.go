package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/config"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
)

// sodaPageSize is the Socrata page size; the Chicago station dataset is a few
// thousand rows, so two pages at most.
const sodaPageSize = 50000

// StationFetcher retrieves a city's station reference geometry from its
// GBFS or Socrata endpoint.
type StationFetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewStationFetcher creates a StationFetcher with the given request timeout.
func NewStationFetcher(timeout time.Duration, logger *slog.Logger) *StationFetcher {
	return &StationFetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch retrieves and normalizes the station collection for one city.
func (f *StationFetcher) Fetch(ctx context.Context, src config.CitySource) ([]domain.StationRecord, error) {
	var (
		stations []domain.StationRecord
		err      error
	)
	switch src.StationSource {
	case config.StationSourceGBFS:
		stations, err = f.fetchGBFS(ctx, src.StationEndpoint)
	case config.StationSourceSODA:
		stations, err = f.fetchSODA(ctx, src.StationEndpoint)
	default:
		return nil, fmt.Errorf("unsupported station source %q", src.StationSource)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch stations for %s: %w", src.Name, err)
	}

	f.logger.Info("station data fetched", "city", src.Name, "stations", len(stations))
	return stations, nil
}

// gbfsResponse is the subset of a GBFS station_information feed we consume.
type gbfsResponse struct {
	Data struct {
		Stations []struct {
			StationID string  `json:"station_id"`
			Name      string  `json:"name"`
			Lat       float64 `json:"lat"`
			Lon       float64 `json:"lon"`
		} `json:"stations"`
	} `json:"data"`
}

func (f *StationFetcher) fetchGBFS(ctx context.Context, endpoint string) ([]domain.StationRecord, error) {
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var feed gbfsResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode GBFS feed: %w", err)
	}

	stations := make([]domain.StationRecord, 0, len(feed.Data.Stations))
	for _, s := range feed.Data.Stations {
		stations = append(stations, domain.StationRecord{
			ID:   s.StationID,
			Name: s.Name,
			Lat:  s.Lat,
			Lng:  s.Lon,
		})
	}
	return stations, nil
}

// fetchSODA pages through a Socrata JSON endpoint until an empty batch.
// Socrata returns every value as a string and field names vary by dataset,
// so coordinates are normalized by name.
func (f *StationFetcher) fetchSODA(ctx context.Context, endpoint string) ([]domain.StationRecord, error) {
	var stations []domain.StationRecord
	for offset := 0; ; offset += sodaPageSize {
		pageURL := fmt.Sprintf("%s?$limit=%d&$offset=%d", endpoint, sodaPageSize, offset)
		body, err := f.get(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		var batch []map[string]any
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("decode SODA page: %w", err)
		}
		if len(batch) == 0 {
			return stations, nil
		}

		for _, row := range batch {
			s, ok := stationFromSODARow(row)
			if !ok {
				continue
			}
			stations = append(stations, s)
		}
	}
}

// stationFromSODARow normalizes one Socrata row. Rows without a usable
// coordinate pair are skipped; they carry no reference geometry.
func stationFromSODARow(row map[string]any) (domain.StationRecord, bool) {
	lat, latOK := coordinateField(row, "lat", "latitude")
	lng, lngOK := coordinateField(row, "lng", "lon", "long", "longitude")
	if !latOK || !lngOK {
		return domain.StationRecord{}, false
	}

	s := domain.StationRecord{Lat: lat, Lng: lng}
	if v, ok := row["id"].(string); ok {
		s.ID = v
	}
	if v, ok := row["station_name"].(string); ok {
		s.Name = v
	}
	return s, true
}

func coordinateField(row map[string]any, names ...string) (float64, bool) {
	for _, name := range names {
		switch v := row[name].(type) {
		case string:
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed, true
			}
		case float64:
			return v, true
		}
	}
	return 0, false
}

func (f *StationFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request %s: status %d: %s", rawURL, resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}
