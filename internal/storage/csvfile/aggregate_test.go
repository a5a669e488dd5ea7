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

func TestAggregatedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aggregated.csv")
	rows := []domain.CityDaily{
		{City: "NYC", Date: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), RideCount: 120, MemberCount: 90, CasualCount: 30},
		{City: "Chicago", Date: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), RideCount: 45, MemberCount: 20, CasualCount: 25},
	}

	require.NoError(t, WriteAggregated(path, rows))

	got, err := ReadAggregated(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteMerged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.csv")
	date := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.MergedDaily{
		{
			CityDaily: domain.CityDaily{City: "NYC", Date: date, RideCount: 120, MemberCount: 90, CasualCount: 30},
			Weather: &domain.WeatherRecord{
				City: "NYC", Date: date,
				TAvg: f(18.5), TMax: f(24.0), Prcp: f(0.2),
			},
		},
		{
			// Days without a weather match keep their ride counts with
			// empty weather columns.
			CityDaily: domain.CityDaily{City: "Boston", Date: date, RideCount: 10, MemberCount: 4, CasualCount: 6},
		},
	}

	require.NoError(t, WriteMerged(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "city,date,ride_count,member_count,casual_count,tavg,tmin,tmax,prcp,snow,wdir,wspd,pres", lines[0])
	assert.Equal(t, "NYC,2024-09-01,120,90,30,18.5,,24,0.2,,,,", lines[1])
	assert.Equal(t, "Boston,2024-09-01,10,4,6,,,,,,,,", lines[2])
}
