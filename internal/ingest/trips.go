// Package ingest fetches the pipeline's raw inputs: monthly trip-zip
// archives, station reference feeds, and daily weather observations. It
// supplies the cleaning core with on-disk raw collections and never applies
// any cleaning logic itself.
package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/config"
)

// TripFetcher downloads and extracts monthly trip archives.
type TripFetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTripFetcher creates a TripFetcher with the given download timeout.
func NewTripFetcher(timeout time.Duration, logger *slog.Logger) *TripFetcher {
	return &TripFetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchMonthlyArchive downloads <base><month>-<suffix>, extracts the first
// trip CSV from the zip (ignoring archive system files), and writes it to
// <rawDir>/<city>/trip_data/<month>/<month>-combined.csv. Returns the
// combined CSV path.
func (f *TripFetcher) FetchMonthlyArchive(ctx context.Context, src config.CitySource, month, rawDir string) (string, error) {
	archiveURL := src.TripBaseURL + month + "-" + src.TripArchiveSuffix
	monthDir := filepath.Join(rawDir, src.Name, "trip_data", month)
	if err := os.MkdirAll(monthDir, 0o755); err != nil {
		return "", fmt.Errorf("create month dir: %w", err)
	}

	f.logger.Info("downloading trip archive", "city", src.Name, "url", archiveURL)

	body, err := f.download(ctx, archiveURL)
	if err != nil {
		return "", err
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("open trip archive: %w", err)
	}

	csvFile := firstTripCSV(zr)
	if csvFile == nil {
		return "", fmt.Errorf("no trip CSV in archive %s", archiveURL)
	}
	f.logger.Info("extracting trip CSV", "city", src.Name, "file", csvFile.Name)

	combinedPath := filepath.Join(monthDir, month+"-combined.csv")
	if err := extractTo(csvFile, combinedPath); err != nil {
		return "", err
	}
	return combinedPath, nil
}

func (f *TripFetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read archive body: %w", err)
	}
	return body, nil
}

// firstTripCSV returns the first CSV entry that is not a macOS resource-fork
// artifact, or nil when the archive holds none.
func firstTripCSV(zr *zip.Reader) *zip.File {
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, ".csv") && !strings.Contains(zf.Name, "__MACOSX") {
			return zf
		}
	}
	return nil
}

func extractTo(zf *zip.File, dst string) error {
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("open zip entry: %w", err)
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extract %s: %w", zf.Name, err)
	}
	return nil
}
