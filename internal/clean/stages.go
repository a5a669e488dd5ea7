// Package clean implements the trip-record cleaning pipeline: five composable
// filter stages over an in-memory trip collection, the post-filter schema
// validator, and the weather-record cleaning rules.
//
// Every stage is pure with respect to its input: it reads the prior stage's
// slice, allocates a new one, and reports how many records it removed. The
// canonical order is deduplicate → missing-value → geofence → duration →
// distance, but stages do not depend on each other and can be chained in any
// order for testing.
package clean

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/observability"
)

// Duration window defaults: a zero-duration trip is valid, anything over a
// day is an outlier (dock re-rack, lost bike, clock skew).
const (
	DefaultMinMinutes = 0
	DefaultMaxMinutes = 24 * 60
)

// Cleaner applies the filter stages, reporting per-stage removal counts
// through structured logs and Prometheus counters.
type Cleaner struct {
	logger     *slog.Logger
	metrics    *observability.Metrics
	minMinutes float64
	maxMinutes float64
}

// Option adjusts Cleaner behavior.
type Option func(*Cleaner)

// WithDurationWindow overrides the inclusive [min, max] duration bounds in minutes.
func WithDurationWindow(minMinutes, maxMinutes float64) Option {
	return func(c *Cleaner) {
		c.minMinutes = minMinutes
		c.maxMinutes = maxMinutes
	}
}

// New creates a Cleaner with the default duration window.
func New(logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Cleaner {
	c := &Cleaner{
		logger:     logger,
		metrics:    metrics,
		minMinutes: DefaultMinMinutes,
		maxMinutes: DefaultMaxMinutes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean runs the canonical stage order for one city, then validates the
// result. Stage failure is returned to the caller; validation violations are
// logged and counted but never block the cleaned collection.
func (c *Cleaner) Clean(city string, trips []domain.TripRecord, stations []domain.StationRecord) ([]domain.TripRecord, error) {
	trips = c.Deduplicate(city, trips)
	trips = c.DropMissing(city, trips)

	trips, err := c.Geofence(city, trips, stations)
	if err != nil {
		return nil, fmt.Errorf("geofence %s: %w", city, err)
	}

	trips = c.FilterByDuration(city, trips)
	trips = c.FilterByDistance(city, trips)

	if violations := c.ValidateTrips(city, trips); len(violations) > 0 {
		c.logger.Warn("cleaned data failed schema validation",
			"city", city, "violations", len(violations))
	} else {
		c.logger.Info("cleaned data validated successfully", "city", city)
	}

	return trips, nil
}

// Deduplicate keeps the first occurrence of each ride_id in input order and
// drops later duplicates.
func (c *Cleaner) Deduplicate(city string, trips []domain.TripRecord) []domain.TripRecord {
	seen := make(map[string]struct{}, len(trips))
	kept := make([]domain.TripRecord, 0, len(trips))
	for _, t := range trips {
		if _, dup := seen[t.RideID]; dup {
			continue
		}
		seen[t.RideID] = struct{}{}
		kept = append(kept, t)
	}
	c.reportRemoved(city, "deduplicate", len(trips), len(kept))
	return kept
}

// DropMissing removes records with a missing ride_id, timestamp, or
// coordinate. The 0.0 coordinate sentinel has already been recoded to an
// invalid Coord by the coercion boundary.
func (c *Cleaner) DropMissing(city string, trips []domain.TripRecord) []domain.TripRecord {
	kept := make([]domain.TripRecord, 0, len(trips))
	for _, t := range trips {
		if t.RideID == "" || t.StartedAt.IsZero() || t.EndedAt.IsZero() {
			continue
		}
		if !t.Start.Valid || !t.End.Valid {
			continue
		}
		kept = append(kept, t)
	}
	c.reportRemoved(city, "missing_values", len(trips), len(kept))
	return kept
}

// Geofence keeps trips whose end coordinate falls inside the station bounding
// box, bounds inclusive. Only the end point is constrained. An empty station
// collection is fatal: filtering against an undefined box is meaningless.
func (c *Cleaner) Geofence(city string, trips []domain.TripRecord, stations []domain.StationRecord) ([]domain.TripRecord, error) {
	box, err := domain.BoundsFromStations(stations)
	if err != nil {
		return nil, err
	}

	kept := make([]domain.TripRecord, 0, len(trips))
	for _, t := range trips {
		if box.Contains(t.End) {
			kept = append(kept, t)
		}
	}

	c.logger.Info("geofence bounds applied",
		"city", city,
		"total", len(trips),
		"out_of_bounds", len(trips)-len(kept),
		"remain", len(kept),
	)
	c.countRemoved(city, "geofence", len(trips)-len(kept))
	return kept, nil
}

// FilterByDuration keeps trips whose duration in minutes lies within the
// inclusive [min, max] window. Negative durations fall below any
// non-negative minimum and are removed.
func (c *Cleaner) FilterByDuration(city string, trips []domain.TripRecord) []domain.TripRecord {
	kept := make([]domain.TripRecord, 0, len(trips))
	for _, t := range trips {
		d := t.DurationMinutes()
		if d >= c.minMinutes && d <= c.maxMinutes {
			kept = append(kept, t)
		}
	}

	c.logger.Info("duration filter applied",
		"city", city,
		"removed", len(trips)-len(kept),
		"min_minutes", c.minMinutes,
		"max_minutes", c.maxMinutes,
	)
	c.countRemoved(city, "duration", len(trips)-len(kept))
	return kept
}

// FilterByDistance computes all start-to-end haversine distances in one bulk
// pass, then keeps trips strictly farther than 0 km. Exact round-trips and
// distances rounding to zero are removed; there is no upper cap.
func (c *Cleaner) FilterByDistance(city string, trips []domain.TripRecord) []domain.TripRecord {
	distances := domain.TripDistances(trips)

	kept := make([]domain.TripRecord, 0, len(trips))
	for i, t := range trips {
		if distances[i] > 0 {
			kept = append(kept, t)
		}
	}
	c.reportRemoved(city, "distance", len(trips), len(kept))
	return kept
}

func (c *Cleaner) reportRemoved(city, stage string, before, after int) {
	c.logger.Info("filter stage applied",
		"city", city,
		"stage", stage,
		"removed", before-after,
	)
	c.countRemoved(city, stage, before-after)
}

func (c *Cleaner) countRemoved(city, stage string, removed int) {
	c.metrics.TripsRemoved.WithLabelValues(city, stage).Add(float64(removed))
}
