package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/bikeshare-trip-etl/internal/domain"
)

var aggregateColumns = []string{"city", "date", "ride_count", "member_count", "casual_count"}

var mergedColumns = append(append([]string{}, aggregateColumns...),
	"tavg", "tmin", "tmax", "prcp", "snow", "wdir", "wspd", "pres")

// WriteAggregated persists the per-city/per-day trip aggregates.
func WriteAggregated(path string, rows []domain.CityDaily) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create aggregate file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(aggregateColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		rec := []string{
			row.City,
			row.Date.Format(time.DateOnly),
			strconv.Itoa(row.RideCount),
			strconv.Itoa(row.MemberCount),
			strconv.Itoa(row.CasualCount),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write aggregate row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ReadAggregated reads a file written by WriteAggregated.
func ReadAggregated(path string) ([]domain.CityDaily, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open aggregate file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read aggregate header: %w", err)
	}
	col, err := headerIndex(header, aggregateColumns)
	if err != nil {
		return nil, err
	}

	var rows []domain.CityDaily
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read aggregate row: %w", err)
		}

		date, err := parseDate(field(rec, col["date"]))
		if err != nil {
			return nil, fmt.Errorf("aggregate date: %w", err)
		}
		rideCount, err := strconv.Atoi(field(rec, col["ride_count"]))
		if err != nil {
			return nil, fmt.Errorf("aggregate ride_count: %w", err)
		}
		memberCount, err := strconv.Atoi(field(rec, col["member_count"]))
		if err != nil {
			return nil, fmt.Errorf("aggregate member_count: %w", err)
		}
		casualCount, err := strconv.Atoi(field(rec, col["casual_count"]))
		if err != nil {
			return nil, fmt.Errorf("aggregate casual_count: %w", err)
		}

		rows = append(rows, domain.CityDaily{
			City:        field(rec, col["city"]),
			Date:        date,
			RideCount:   rideCount,
			MemberCount: memberCount,
			CasualCount: casualCount,
		})
	}
	return rows, nil
}

// WriteMerged persists the final city/day dataset with its joined weather
// columns. Unmatched days carry empty weather fields.
func WriteMerged(path string, rows []domain.MergedDaily) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create merged file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(mergedColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		rec := []string{
			row.City,
			row.Date.Format(time.DateOnly),
			strconv.Itoa(row.RideCount),
			strconv.Itoa(row.MemberCount),
			strconv.Itoa(row.CasualCount),
		}
		if wr := row.Weather; wr != nil {
			rec = append(rec,
				formatOptFloat(wr.TAvg), formatOptFloat(wr.TMin), formatOptFloat(wr.TMax),
				formatOptFloat(wr.Prcp), formatOptFloat(wr.Snow),
				formatOptFloat(wr.Wdir), formatOptFloat(wr.Wspd), formatOptFloat(wr.Pres))
		} else {
			rec = append(rec, "", "", "", "", "", "", "", "")
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write merged row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
