package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow() RawTripRow {
	return RawTripRow{
		RideID:           "A1B2C3",
		RideableType:     "classic_bike",
		StartedAt:        "2024-09-01 08:15:00",
		EndedAt:          "2024-09-01 08:45:30",
		StartStationName: "W 21 St & 6 Ave",
		StartStationID:   "6140.05",
		EndStationName:   "E 17 St & Broadway",
		EndStationID:     "5980.07",
		StartLat:         "40.74174",
		StartLng:         "-73.99416",
		EndLat:           "40.73705",
		EndLng:           "-73.99009",
		MemberCasual:     "member",
	}
}

func TestParseTripRecord(t *testing.T) {
	t.Run("complete row", func(t *testing.T) {
		rec, err := ParseTripRecord(validRow())

		require.NoError(t, err)
		assert.Equal(t, "A1B2C3", rec.RideID)
		assert.Equal(t, "classic_bike", rec.RideableType)
		assert.Equal(t, time.Date(2024, 9, 1, 8, 15, 0, 0, time.UTC), rec.StartedAt)
		assert.Equal(t, time.Date(2024, 9, 1, 8, 45, 30, 0, time.UTC), rec.EndedAt)
		assert.True(t, rec.Start.Valid)
		assert.Equal(t, 40.74174, rec.Start.Lat)
		assert.Equal(t, -73.99416, rec.Start.Lng)
		assert.True(t, rec.End.Valid)
		assert.Equal(t, "member", rec.MemberCasual)
	})

	t.Run("fractional second timestamps", func(t *testing.T) {
		row := validRow()
		row.StartedAt = "2024-09-01 08:15:00.123"
		rec, err := ParseTripRecord(row)

		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 9, 1, 8, 15, 0, 123000000, time.UTC), rec.StartedAt)
	})

	t.Run("empty timestamp becomes zero time", func(t *testing.T) {
		row := validRow()
		row.EndedAt = ""
		rec, err := ParseTripRecord(row)

		require.NoError(t, err)
		assert.True(t, rec.EndedAt.IsZero())
		assert.False(t, rec.StartedAt.IsZero())
	})

	t.Run("unparseable timestamp is an error", func(t *testing.T) {
		row := validRow()
		row.StartedAt = "09/01/2024 8:15 AM"
		_, err := ParseTripRecord(row)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "started_at")
	})

	t.Run("zero coordinate sentinel recoded to invalid", func(t *testing.T) {
		row := validRow()
		row.StartLat = "0.0"
		rec, err := ParseTripRecord(row)

		require.NoError(t, err)
		assert.False(t, rec.Start.Valid)
		assert.Zero(t, rec.Start.Lat)
		assert.True(t, rec.End.Valid)
	})

	t.Run("empty coordinate component invalidates the pair", func(t *testing.T) {
		row := validRow()
		row.EndLng = ""
		rec, err := ParseTripRecord(row)

		require.NoError(t, err)
		assert.False(t, rec.End.Valid)
	})

	t.Run("unparseable coordinate is an error", func(t *testing.T) {
		row := validRow()
		row.EndLat = "forty point seven"
		_, err := ParseTripRecord(row)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "end coordinate")
	})

	t.Run("fields are trimmed", func(t *testing.T) {
		row := validRow()
		row.RideID = "  A1B2C3  "
		row.MemberCasual = " casual "
		rec, err := ParseTripRecord(row)

		require.NoError(t, err)
		assert.Equal(t, "A1B2C3", rec.RideID)
		assert.Equal(t, "casual", rec.MemberCasual)
	})
}

func TestParseTripTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"plain seconds", "2024-09-15 14:30:00", time.Date(2024, 9, 15, 14, 30, 0, 0, time.UTC), false},
		{"milliseconds", "2024-09-15 14:30:00.500", time.Date(2024, 9, 15, 14, 30, 0, 500000000, time.UTC), false},
		{"RFC3339", "2024-09-15T14:30:00Z", time.Date(2024, 9, 15, 14, 30, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, false},
		{"whitespace only", "   ", time.Time{}, false},
		{"garbage", "yesterday", time.Time{}, true},
		{"date only", "2024-09-15", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTripTime(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("positive duration", func(t *testing.T) {
		trip := TripRecord{StartedAt: start, EndedAt: start.Add(30 * time.Minute)}
		assert.Equal(t, 30.0, trip.DurationMinutes())
	})

	t.Run("negative when ended before started", func(t *testing.T) {
		trip := TripRecord{StartedAt: start, EndedAt: start.Add(-5 * time.Minute)}
		assert.Equal(t, -5.0, trip.DurationMinutes())
	})

	t.Run("sub-minute precision", func(t *testing.T) {
		trip := TripRecord{StartedAt: start, EndedAt: start.Add(90 * time.Second)}
		assert.Equal(t, 1.5, trip.DurationMinutes())
	})
}
