package csvfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
)

func f(v float64) *float64 { return &v }

func TestWeatherRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.csv")
	records := []domain.WeatherRecord{
		{
			City: "NYC",
			Date: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			TAvg: f(18.5), TMin: f(12.0), TMax: f(24.0),
			Prcp: f(0.2), Snow: f(0), Wdir: f(270), Wspd: f(11.3), Pres: f(1013.4),
		},
		{
			// Optional fields absent round-trip as nil.
			City: "Boston",
			Date: time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
			TAvg: f(16.0), TMax: f(21.5), Prcp: f(1.8),
		},
	}

	require.NoError(t, WriteWeather(path, records))

	got, err := ReadWeather(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestReadWeatherErrors(t *testing.T) {
	t.Run("bad date", func(t *testing.T) {
		path := writeFile(t, "weather.csv",
			"city,date,tavg,tmin,tmax,prcp,snow,wdir,wspd,pres\nNYC,September 1,18.5,,,0.2,,,,\n")

		_, err := ReadWeather(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weather date")
	})

	t.Run("bad number", func(t *testing.T) {
		path := writeFile(t, "weather.csv",
			"city,date,tavg,tmin,tmax,prcp,snow,wdir,wspd,pres\nNYC,2024-09-01,warm,,,0.2,,,,\n")

		_, err := ReadWeather(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tavg")
	})
}

func TestWriteWeatherCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "weather.csv")
	require.NoError(t, WriteWeather(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "city,date,"))
}
