package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// cleaning pipeline and its collaborators.
type Metrics struct {
	TripsRead            *prometheus.CounterVec // labels: city
	TripsRemoved         *prometheus.CounterVec // labels: city, stage
	TripsCleaned         *prometheus.CounterVec // labels: city
	ValidationViolations *prometheus.CounterVec // labels: city, rule
	CityFailures         *prometheus.CounterVec // labels: city, phase

	CityCleanDuration *prometheus.HistogramVec // labels: city
	PipelineRunning   prometheus.Gauge

	WeatherRowsRemoved prometheus.Counter

	// Cleaned-trip Kafka publishing metrics.
	TripsPublished prometheus.Counter
	PublishErrors  prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TripsRead,
		m.TripsRemoved,
		m.TripsCleaned,
		m.ValidationViolations,
		m.CityFailures,
		m.CityCleanDuration,
		m.PipelineRunning,
		m.WeatherRowsRemoved,
		m.TripsPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TripsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bikeshare_etl",
			Name:      "trips_read_total",
			Help:      "Raw trip records read per city before cleaning.",
		}, []string{"city"}),
		TripsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bikeshare_etl",
			Name:      "trips_removed_total",
			Help:      "Trip records removed per city and filter stage.",
		}, []string{"city", "stage"}),
		TripsCleaned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bikeshare_etl",
			Name:      "trips_cleaned_total",
			Help:      "Trip records surviving all filter stages per city.",
		}, []string{"city"}),
		ValidationViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bikeshare_etl",
			Name:      "validation_violations_total",
			Help:      "Schema-contract violations found in cleaned collections.",
		}, []string{"city", "rule"}),
		CityFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bikeshare_etl",
			Name:      "city_failures_total",
			Help:      "Per-city pipeline failures by phase.",
		}, []string{"city", "phase"}),
		CityCleanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bikeshare_etl",
			Name:      "city_clean_duration_seconds",
			Help:      "Duration of a complete per-city clean-and-persist run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"city"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bikeshare_etl",
			Name:      "pipeline_running",
			Help:      "1 while the batch pipeline is active, 0 otherwise.",
		}),
		WeatherRowsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bikeshare_etl",
			Name:      "weather_rows_removed_total",
			Help:      "Weather observations removed during cleaning.",
		}),
		TripsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bikeshare_etl",
			Name:      "trips_published_total",
			Help:      "Cleaned trip records published to the Kafka sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bikeshare_etl",
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publish attempts.",
		}),
	}
}
