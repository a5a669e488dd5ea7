package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWeatherClient(baseURL string) *WeatherClient {
	return &WeatherClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     discardLogger(),
	}
}

func TestFetchDaily(t *testing.T) {
	t.Run("decodes parallel daily arrays", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "40.7128", q.Get("latitude"))
			assert.Equal(t, "-74.0060", q.Get("longitude"))
			assert.Equal(t, "2024-08-31", q.Get("start_date"))
			assert.Equal(t, "2024-09-02", q.Get("end_date"))
			assert.Equal(t, "UTC", q.Get("timezone"))
			assert.Contains(t, q.Get("daily"), "temperature_2m_mean")

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"daily": {
					"time": ["2024-08-31", "2024-09-01", "2024-09-02"],
					"temperature_2m_mean": [18.5, null, 20.1],
					"temperature_2m_min": [12.0, 13.5, 14.0],
					"temperature_2m_max": [24.0, 25.5, 26.0],
					"precipitation_sum": [0.2, 0.0, null],
					"snowfall_sum": [0, 0, 0],
					"wind_direction_10m_dominant": [270, 180, 90],
					"wind_speed_10m_max": [11.3, 9.8, 14.2],
					"surface_pressure_mean": [1013.4, 1011.0, 1009.7]
				}
			}`))
		}))
		defer srv.Close()

		c := testWeatherClient(srv.URL)
		start := time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

		records, err := c.FetchDaily(context.Background(), "NYC", 40.7128, -74.0060, start, end)

		require.NoError(t, err)
		require.Len(t, records, 3)

		assert.Equal(t, "NYC", records[0].City)
		assert.Equal(t, start, records[0].Date)
		require.NotNil(t, records[0].TAvg)
		assert.Equal(t, 18.5, *records[0].TAvg)
		require.NotNil(t, records[0].Pres)
		assert.Equal(t, 1013.4, *records[0].Pres)

		assert.Nil(t, records[1].TAvg, "null measurement decodes to nil")
		assert.Nil(t, records[2].Prcp)
	})

	t.Run("short measurement arrays pad with nil", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"daily": {
					"time": ["2024-09-01", "2024-09-02"],
					"temperature_2m_mean": [18.5]
				}
			}`))
		}))
		defer srv.Close()

		c := testWeatherClient(srv.URL)
		records, err := c.FetchDaily(context.Background(), "NYC", 40.7, -74.0,
			time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC))

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.NotNil(t, records[0].TAvg)
		assert.Nil(t, records[1].TAvg)
		assert.Nil(t, records[0].TMax)
	})

	t.Run("archive error status surfaces", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"reason": "start_date out of range"}`))
		}))
		defer srv.Close()

		c := testWeatherClient(srv.URL)
		_, err := c.FetchDaily(context.Background(), "NYC", 40.7, -74.0,
			time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
		assert.Contains(t, err.Error(), "start_date out of range")
	})
}
