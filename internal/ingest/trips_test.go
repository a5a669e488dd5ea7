package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/config"
)

const tripCSVContent = "ride_id,started_at\nr1,2024-09-01 08:00:00\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// zipArchive builds an in-memory zip with the given entries in order.
func zipArchive(t *testing.T, entries map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testSource(baseURL string) config.CitySource {
	return config.CitySource{
		Name:              "NYC",
		TripBaseURL:       baseURL + "/",
		TripArchiveSuffix: "citibike-tripdata.zip",
	}
}

func TestFetchMonthlyArchive(t *testing.T) {
	t.Run("downloads and extracts the trip CSV", func(t *testing.T) {
		archive := zipArchive(t, map[string]string{
			"202409-citibike-tripdata.csv": tripCSVContent,
		}, "202409-citibike-tripdata.csv")

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/202409-citibike-tripdata.zip", r.URL.Path)
			_, _ = w.Write(archive)
		}))
		defer srv.Close()

		rawDir := t.TempDir()
		f := NewTripFetcher(5*time.Second, discardLogger())

		path, err := f.FetchMonthlyArchive(context.Background(), testSource(srv.URL), "202409", rawDir)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(rawDir, "NYC", "trip_data", "202409", "202409-combined.csv"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, tripCSVContent, string(data))
	})

	t.Run("skips macOS resource forks", func(t *testing.T) {
		archive := zipArchive(t, map[string]string{
			"__MACOSX/._202409-tripdata.csv": "junk",
			"202409-tripdata.csv":            tripCSVContent,
		}, "__MACOSX/._202409-tripdata.csv", "202409-tripdata.csv")

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(archive)
		}))
		defer srv.Close()

		f := NewTripFetcher(5*time.Second, discardLogger())
		path, err := f.FetchMonthlyArchive(context.Background(), testSource(srv.URL), "202409", t.TempDir())

		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, tripCSVContent, string(data))
	})

	t.Run("archive without a CSV is an error", func(t *testing.T) {
		archive := zipArchive(t, map[string]string{"readme.txt": "no data"}, "readme.txt")

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(archive)
		}))
		defer srv.Close()

		f := NewTripFetcher(5*time.Second, discardLogger())
		_, err := f.FetchMonthlyArchive(context.Background(), testSource(srv.URL), "202409", t.TempDir())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no trip CSV")
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewTripFetcher(5*time.Second, discardLogger())
		_, err := f.FetchMonthlyArchive(context.Background(), testSource(srv.URL), "202409", t.TempDir())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("corrupt archive is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not a zip"))
		}))
		defer srv.Close()

		f := NewTripFetcher(5*time.Second, discardLogger())
		_, err := f.FetchMonthlyArchive(context.Background(), testSource(srv.URL), "202409", t.TempDir())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "open trip archive")
	})
}
