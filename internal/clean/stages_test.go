package clean

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCleaner(opts ...Option) *Cleaner {
	return New(discardLogger(), observability.NewMetricsForTesting(), opts...)
}

var testStart = time.Date(2024, 9, 10, 8, 0, 0, 0, time.UTC)

// trip builds a fully valid record inside the test station box.
func trip(rideID string, minutes float64) domain.TripRecord {
	return domain.TripRecord{
		RideID:       rideID,
		RideableType: "classic_bike",
		StartedAt:    testStart,
		EndedAt:      testStart.Add(time.Duration(minutes * float64(time.Minute))),
		Start:        domain.Coord{Lat: 40.72, Lng: -74.00, Valid: true},
		End:          domain.Coord{Lat: 40.75, Lng: -73.98, Valid: true},
		MemberCasual: "member",
	}
}

func testStations() []domain.StationRecord {
	return []domain.StationRecord{
		{ID: "s1", Lat: 40.70, Lng: -74.02},
		{ID: "s2", Lat: 40.80, Lng: -73.93},
	}
}

func TestDeduplicate(t *testing.T) {
	c := testCleaner()

	t.Run("first occurrence wins", func(t *testing.T) {
		first := trip("r1", 10)
		second := trip("r1", 99)
		kept := c.Deduplicate("NYC", []domain.TripRecord{first, second, trip("r2", 5)})

		require.Len(t, kept, 2)
		assert.Equal(t, first.EndedAt, kept[0].EndedAt)
		assert.Equal(t, "r2", kept[1].RideID)
	})

	t.Run("idempotent", func(t *testing.T) {
		in := []domain.TripRecord{trip("r1", 10), trip("r1", 20), trip("r2", 5)}
		once := c.Deduplicate("NYC", in)
		twice := c.Deduplicate("NYC", once)

		assert.Equal(t, once, twice)
	})

	t.Run("ride ids unique afterwards", func(t *testing.T) {
		in := []domain.TripRecord{trip("r1", 1), trip("r2", 1), trip("r1", 1), trip("r2", 1)}
		kept := c.Deduplicate("NYC", in)

		seen := map[string]int{}
		for _, tr := range kept {
			seen[tr.RideID]++
		}
		for id, n := range seen {
			assert.Equal(t, 1, n, "ride_id %s", id)
		}
	})
}

func TestDropMissing(t *testing.T) {
	c := testCleaner()

	missingID := trip("", 10)
	missingEnd := trip("r2", 10)
	missingEnd.EndedAt = time.Time{}
	missingCoord := trip("r3", 10)
	missingCoord.Start = domain.Coord{}
	keeper := trip("r4", 10)

	kept := c.DropMissing("NYC", []domain.TripRecord{missingID, missingEnd, missingCoord, keeper})

	require.Len(t, kept, 1)
	assert.Equal(t, "r4", kept[0].RideID)
}

func TestGeofence(t *testing.T) {
	c := testCleaner()
	stations := []domain.StationRecord{
		{ID: "a", Lat: 0, Lng: 0},
		{ID: "b", Lat: 10, Lng: 10},
	}

	endAt := func(rideID string, lat, lng float64) domain.TripRecord {
		tr := trip(rideID, 10)
		tr.End = domain.Coord{Lat: lat, Lng: lng, Valid: true}
		return tr
	}

	t.Run("bounds are inclusive", func(t *testing.T) {
		kept, err := c.Geofence("NYC", []domain.TripRecord{
			endAt("center", 5, 5),
			endAt("corner", 10, 10),
			endAt("edge", 0, 5),
			endAt("outside", 11, 5),
		}, stations)

		require.NoError(t, err)
		require.Len(t, kept, 3)
		assert.Equal(t, "center", kept[0].RideID)
		assert.Equal(t, "corner", kept[1].RideID)
		assert.Equal(t, "edge", kept[2].RideID)
	})

	t.Run("start coordinate is not constrained", func(t *testing.T) {
		tr := endAt("far-start", 5, 5)
		tr.Start = domain.Coord{Lat: 80, Lng: 170, Valid: true}

		kept, err := c.Geofence("NYC", []domain.TripRecord{tr}, stations)

		require.NoError(t, err)
		assert.Len(t, kept, 1)
	})

	t.Run("no stations is fatal", func(t *testing.T) {
		_, err := c.Geofence("NYC", []domain.TripRecord{endAt("r1", 5, 5)}, nil)
		require.ErrorIs(t, err, domain.ErrNoStations)
	})
}

func TestFilterByDuration(t *testing.T) {
	c := testCleaner(WithDurationWindow(0, 60))

	kept := c.FilterByDuration("NYC", []domain.TripRecord{
		trip("zero", 0),
		trip("exact-max", 60),
		trip("over", 60.0001),
		trip("negative", -1),
		trip("mid", 30),
	})

	require.Len(t, kept, 3)
	assert.Equal(t, "zero", kept[0].RideID)
	assert.Equal(t, "exact-max", kept[1].RideID)
	assert.Equal(t, "mid", kept[2].RideID)
}

func TestFilterByDistance(t *testing.T) {
	c := testCleaner()

	roundTrip := trip("round", 10)
	roundTrip.End = roundTrip.Start

	short := trip("short", 10)
	short.End = domain.Coord{Lat: short.Start.Lat + 0.0001, Lng: short.Start.Lng, Valid: true}

	kept := c.FilterByDistance("NYC", []domain.TripRecord{roundTrip, short, trip("normal", 10)})

	require.Len(t, kept, 2)
	assert.Equal(t, "short", kept[0].RideID)
	assert.Equal(t, "normal", kept[1].RideID)
}

func TestCleanPipeline(t *testing.T) {
	t.Run("one defect per stage", func(t *testing.T) {
		metrics := observability.NewMetricsForTesting()
		c := New(discardLogger(), metrics)

		duplicate := trip("keeper", 999) // same ride_id as the first valid trip
		missing := trip("no-coord", 10)
		missing.End = domain.Coord{}
		outOfBounds := trip("runaway", 10)
		outOfBounds.End = domain.Coord{Lat: 45.0, Lng: -73.98, Valid: true}
		tooLong := trip("marathon", 25*60)
		static := trip("static", 10)
		static.End = static.Start

		kept, err := c.Clean("NYC", []domain.TripRecord{
			trip("keeper", 12),
			duplicate,
			missing,
			outOfBounds,
			tooLong,
			static,
		}, testStations())

		require.NoError(t, err)
		require.Len(t, kept, 1)
		assert.Equal(t, "keeper", kept[0].RideID)
		assert.Equal(t, 12.0, kept[0].DurationMinutes())

		for _, stage := range []string{"deduplicate", "missing_values", "geofence", "duration", "distance"} {
			removed := testutil.ToFloat64(metrics.TripsRemoved.WithLabelValues("NYC", stage))
			assert.Equal(t, 1.0, removed, "stage %s", stage)
		}
	})

	t.Run("stages shrink monotonically", func(t *testing.T) {
		c := testCleaner()
		in := []domain.TripRecord{trip("r1", 10), trip("r1", 20), trip("r2", 15), trip("r3", -3)}

		afterDedup := c.Deduplicate("NYC", in)
		afterMissing := c.DropMissing("NYC", afterDedup)
		afterDuration := c.FilterByDuration("NYC", afterMissing)

		assert.LessOrEqual(t, len(afterDedup), len(in))
		assert.LessOrEqual(t, len(afterMissing), len(afterDedup))
		assert.LessOrEqual(t, len(afterDuration), len(afterMissing))
	})

	t.Run("clean input passes untouched", func(t *testing.T) {
		c := testCleaner()
		in := []domain.TripRecord{trip("r1", 5), trip("r2", 45), trip("r3", 120)}

		kept, err := c.Clean("Chicago", in, testStations())

		require.NoError(t, err)
		assert.Equal(t, in, kept)
	})

	t.Run("empty station set fails the city", func(t *testing.T) {
		c := testCleaner()
		_, err := c.Clean("Boston", []domain.TripRecord{trip("r1", 5)}, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNoStations)
	})
}
