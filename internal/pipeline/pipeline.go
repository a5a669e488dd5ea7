// Package pipeline orchestrates the batch ETL run: weather ingest and
// cleaning, per-city trip ingest/clean/persist with failure isolation, and
// final dataset assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/aggregate"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/clean"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/config"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/observability"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/storage/csvfile"
	"github.com/google/uuid"
)

// TripArchiveFetcher downloads one city's monthly trip archive and returns
// the extracted combined CSV path.
type TripArchiveFetcher interface {
	FetchMonthlyArchive(ctx context.Context, src config.CitySource, month, rawDir string) (string, error)
}

// StationSource retrieves a city's station reference geometry.
type StationSource interface {
	Fetch(ctx context.Context, src config.CitySource) ([]domain.StationRecord, error)
}

// WeatherSource retrieves daily weather observations for one city.
type WeatherSource interface {
	FetchDaily(ctx context.Context, city string, lat, lng float64, start, end time.Time) ([]domain.WeatherRecord, error)
}

// TripPublisher emits a city's cleaned collection to a message sink.
type TripPublisher interface {
	PublishCleaned(ctx context.Context, city, runID string, trips []domain.TripRecord) error
}

// MergedStore persists the final merged dataset.
type MergedStore interface {
	EnsureSchema(ctx context.Context) error
	UpsertMerged(ctx context.Context, rows []domain.MergedDaily) error
}

// Pipeline wires the ingestion collaborators, the cleaning core, and the
// persistence sinks into one batch run.
type Pipeline struct {
	cfg     *config.Config
	cleaner *clean.Cleaner

	trips    TripArchiveFetcher
	stations StationSource
	weather  WeatherSource

	publisher TripPublisher // optional
	store     MergedStore   // optional

	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline. publisher and store may be nil to disable the
// Kafka and Postgres sinks.
func New(cfg *config.Config, cleaner *clean.Cleaner, trips TripArchiveFetcher, stations StationSource, weather WeatherSource, publisher TripPublisher, store MergedStore, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		cleaner:   cleaner,
		trips:     trips,
		stations:  stations,
		weather:   weather,
		publisher: publisher,
		store:     store,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one city has been cleaned and
// persisted in this run.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not cleaned any city yet")
	}
	return nil
}

// Run executes the full batch: weather, then every configured city, then the
// final dataset. A weather failure aborts the run (the merge would be
// meaningless); a city failure is isolated and only removes that city from
// the outputs.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pipeline starting",
		"month", p.cfg.Month,
		"cities", p.cfg.Cities,
		"workers", p.cfg.CleanWorkers,
	)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if err := p.runWeather(ctx, logger); err != nil {
		return fmt.Errorf("weather phase: %w", err)
	}

	failed := p.runCities(ctx, logger, runID)
	if failed == len(p.cfg.Cities) {
		return errors.New("all cities failed")
	}

	if err := p.buildFinalDataset(ctx, logger); err != nil {
		return fmt.Errorf("final dataset phase: %w", err)
	}

	logger.Info("pipeline complete", "cities_failed", failed)
	return nil
}

// runWeather fetches, cleans, and persists the weather observations for
// every configured city in one file.
func (p *Pipeline) runWeather(ctx context.Context, logger *slog.Logger) error {
	rawPath := filepath.Join(p.cfg.RawDataDir, "weather_data.csv")
	cleanedPath := filepath.Join(p.cfg.CleanedDataDir, "weather_data.csv")

	var records []domain.WeatherRecord
	if p.cfg.SkipIngest {
		var err error
		records, err = csvfile.ReadWeather(rawPath)
		if err != nil {
			return fmt.Errorf("read raw weather: %w", err)
		}
	} else {
		start, end := monthRange(p.cfg.Month)
		for _, city := range p.cfg.Cities {
			src := config.CitySources[city]
			cityRecords, err := p.weather.FetchDaily(ctx, city, src.WeatherLat, src.WeatherLng, start, end)
			if err != nil {
				return err
			}
			records = append(records, cityRecords...)
		}
		if err := csvfile.WriteWeather(rawPath, records); err != nil {
			return fmt.Errorf("write raw weather: %w", err)
		}
	}

	cleaned := p.cleaner.CleanWeather(records)
	if err := csvfile.WriteWeather(cleanedPath, cleaned); err != nil {
		return fmt.Errorf("write cleaned weather: %w", err)
	}
	logger.Info("weather phase complete", "observations", len(cleaned))
	return nil
}

// runCities cleans every configured city over a bounded worker pool. Cities
// share no mutable state, so they run concurrently; each failure is logged
// and counted without stopping the others. Returns the failure count.
func (p *Pipeline) runCities(ctx context.Context, logger *slog.Logger, runID string) int {
	sem := make(chan struct{}, p.cfg.CleanWorkers)
	var wg sync.WaitGroup
	var failures atomic.Int64

	for _, city := range p.cfg.Cities {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := p.runCity(ctx, logger, runID, city); err != nil {
				failures.Add(1)
				logger.Error("city pipeline failed", "city", city, "error", err)
			}
		}()
	}
	wg.Wait()
	return int(failures.Load())
}

// runCity is the per-city driver: ingest raw data, coerce types, run the
// filter stages and validator, persist the cleaned collection, and publish
// it when a publisher is configured. Any error before persistence is fatal
// for this city only.
func (p *Pipeline) runCity(ctx context.Context, logger *slog.Logger, runID, city string) error {
	start := time.Now()
	src := config.CitySources[city]
	logger.Info("cleaning data", "city", city)

	tripPath, stations, err := p.ingestCity(ctx, src)
	if err != nil {
		p.metrics.CityFailures.WithLabelValues(city, "ingest").Inc()
		return err
	}

	rows, err := csvfile.ReadRawTrips(tripPath)
	if err != nil {
		p.metrics.CityFailures.WithLabelValues(city, "read").Inc()
		return err
	}
	p.metrics.TripsRead.WithLabelValues(city).Add(float64(len(rows)))

	trips := make([]domain.TripRecord, 0, len(rows))
	for _, row := range rows {
		t, err := domain.ParseTripRecord(row)
		if err != nil {
			p.metrics.CityFailures.WithLabelValues(city, "coerce").Inc()
			return fmt.Errorf("coerce %s: %w", city, err)
		}
		trips = append(trips, t)
	}

	cleaned, err := p.cleaner.Clean(city, trips, stations)
	if err != nil {
		p.metrics.CityFailures.WithLabelValues(city, "clean").Inc()
		return err
	}
	p.metrics.TripsCleaned.WithLabelValues(city).Add(float64(len(cleaned)))

	path, err := csvfile.WriteCleanedTrips(p.cfg.CleanedDataDir, city, cleaned)
	if err != nil {
		p.metrics.CityFailures.WithLabelValues(city, "persist").Inc()
		return err
	}

	if p.publisher != nil {
		if err := p.publisher.PublishCleaned(ctx, city, runID, cleaned); err != nil {
			p.metrics.CityFailures.WithLabelValues(city, "publish").Inc()
			return err
		}
	}

	p.metrics.CityCleanDuration.WithLabelValues(city).Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	logger.Info("city cleaned",
		"city", city,
		"raw", len(rows),
		"cleaned", len(cleaned),
		"path", path,
	)
	return nil
}

// ingestCity returns the combined trip CSV path and station collection for
// one city, either by fetching or, with SKIP_INGEST, from prior raw files.
func (p *Pipeline) ingestCity(ctx context.Context, src config.CitySource) (string, []domain.StationRecord, error) {
	stationPath := filepath.Join(p.cfg.RawDataDir, src.Name, "station_data", "stations.csv")
	tripPath := filepath.Join(p.cfg.RawDataDir, src.Name, "trip_data", p.cfg.Month, p.cfg.Month+"-combined.csv")

	if p.cfg.SkipIngest {
		stations, err := csvfile.ReadStations(stationPath)
		if err != nil {
			return "", nil, fmt.Errorf("read stations: %w", err)
		}
		return tripPath, stations, nil
	}

	tripPath, err := p.trips.FetchMonthlyArchive(ctx, src, p.cfg.Month, p.cfg.RawDataDir)
	if err != nil {
		return "", nil, err
	}

	stations, err := p.stations.Fetch(ctx, src)
	if err != nil {
		return "", nil, err
	}
	if err := csvfile.WriteStations(stationPath, stations); err != nil {
		return "", nil, fmt.Errorf("write stations: %w", err)
	}
	return tripPath, stations, nil
}

// buildFinalDataset aggregates each city's persisted cleaned file, joins the
// cleaned weather, and writes the final outputs. Cities that failed earlier
// simply have no cleaned file and are skipped with a warning.
func (p *Pipeline) buildFinalDataset(ctx context.Context, logger *slog.Logger) error {
	var daily []domain.CityDaily
	for _, city := range p.cfg.Cities {
		path := filepath.Join(p.cfg.CleanedDataDir, city, city+"_cleaned_trips.csv")
		rows, err := csvfile.ReadRawTrips(path)
		if err != nil {
			logger.Warn("cleaned file unavailable, skipping city", "city", city, "error", err)
			continue
		}

		trips := make([]domain.TripRecord, 0, len(rows))
		for _, row := range rows {
			t, err := domain.ParseTripRecord(row)
			if err != nil {
				return fmt.Errorf("reread cleaned %s: %w", city, err)
			}
			trips = append(trips, t)
		}
		daily = append(daily, aggregate.DailyAggregates(city, trips)...)
	}

	if err := csvfile.WriteAggregated(filepath.Join(p.cfg.CleanedDataDir, "aggregated_bike_data.csv"), daily); err != nil {
		return err
	}

	weather, err := csvfile.ReadWeather(filepath.Join(p.cfg.CleanedDataDir, "weather_data.csv"))
	if err != nil {
		return fmt.Errorf("read cleaned weather: %w", err)
	}

	merged := aggregate.MergeWeather(daily, weather)
	if err := csvfile.WriteMerged(filepath.Join(p.cfg.CleanedDataDir, "merged_bike_weather_data.csv"), merged); err != nil {
		return err
	}

	if p.store != nil {
		if err := p.store.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := p.store.UpsertMerged(ctx, merged); err != nil {
			return err
		}
	}

	logger.Info("final dataset written", "rows", len(merged))
	return nil
}

// monthRange returns the weather lookup window for an archive month: the day
// before the month starts through its last day, covering rides that began
// late on the previous day.
func monthRange(month string) (time.Time, time.Time) {
	first, _ := time.Parse("200601", month)
	return first.AddDate(0, 0, -1), first.AddDate(0, 1, -1)
}
