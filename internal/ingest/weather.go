package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
)

// WeatherClient fetches daily weather observations from the Open-Meteo
// historical archive. The archive needs no token and returns one value per
// calendar day, null where a measurement is missing.
type WeatherClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewWeatherClient creates a weather archive client.
func NewWeatherClient(timeout time.Duration, logger *slog.Logger) *WeatherClient {
	return &WeatherClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://archive-api.open-meteo.com/v1/archive",
		logger:     logger,
	}
}

// archiveResponse mirrors the Open-Meteo daily archive payload. Parallel
// arrays indexed by date; null measurements decode to nil.
type archiveResponse struct {
	Daily struct {
		Time     []string   `json:"time"`
		TAvg     []*float64 `json:"temperature_2m_mean"`
		TMin     []*float64 `json:"temperature_2m_min"`
		TMax     []*float64 `json:"temperature_2m_max"`
		Prcp     []*float64 `json:"precipitation_sum"`
		Snow     []*float64 `json:"snowfall_sum"`
		Wdir     []*float64 `json:"wind_direction_10m_dominant"`
		Wspd     []*float64 `json:"wind_speed_10m_max"`
		Pressure []*float64 `json:"surface_pressure_mean"`
	} `json:"daily"`
}

// FetchDaily returns one WeatherRecord per day in [start, end] for the city's
// representative coordinate.
func (c *WeatherClient) FetchDaily(ctx context.Context, city string, lat, lng float64, start, end time.Time) ([]domain.WeatherRecord, error) {
	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", lat)},
		"longitude":  {fmt.Sprintf("%.4f", lng)},
		"start_date": {start.Format(time.DateOnly)},
		"end_date":   {end.Format(time.DateOnly)},
		"daily": {"temperature_2m_mean,temperature_2m_min,temperature_2m_max," +
			"precipitation_sum,snowfall_sum,wind_direction_10m_dominant," +
			"wind_speed_10m_max,surface_pressure_mean"},
		"timezone": {"UTC"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request for %s: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather archive error for %s: status %d: %s", city, resp.StatusCode, body)
	}

	var payload archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	records := make([]domain.WeatherRecord, 0, len(payload.Daily.Time))
	for i, day := range payload.Daily.Time {
		date, err := time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("weather date %q: %w", day, err)
		}
		records = append(records, domain.WeatherRecord{
			City: city,
			Date: date,
			TAvg: at(payload.Daily.TAvg, i),
			TMin: at(payload.Daily.TMin, i),
			TMax: at(payload.Daily.TMax, i),
			Prcp: at(payload.Daily.Prcp, i),
			Snow: at(payload.Daily.Snow, i),
			Wdir: at(payload.Daily.Wdir, i),
			Wspd: at(payload.Daily.Wspd, i),
			Pres: at(payload.Daily.Pressure, i),
		})
	}

	c.logger.Info("weather data fetched", "city", city, "days", len(records))
	return records, nil
}

// at guards against the archive returning shorter measurement arrays than
// the time axis.
func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
