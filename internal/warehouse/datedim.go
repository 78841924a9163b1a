package warehouse

import (
	"context"
	"fmt"
	"time"

	"starload/pkg/errors"
)

const insertDateSQL = `
    INSERT INTO DimDate
    (DateKey, Date, Year, Quarter, Month, Day, MonthName, DayOfWeek, IsWeekend)
    VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9)`

// PopulateDateDimension fills DimDate with one row per calendar day in
// [startYear-01-01, endYear-12-31]. Generation is skipped entirely when
// the table already holds rows: the range is fixed at first run and is
// never extended incrementally. It returns the number of rows inserted.
func (s *Service) PopulateDateDimension(ctx context.Context, startYear, endYear int) (int, error) {
	if !s.connected {
		return 0, fmt.Errorf("not connected to warehouse")
	}
	if startYear > endYear {
		return 0, errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("Invalid date range %d-%d", startYear, endYear))
	}

	countCtx, cancel := s.getContext(ctx)
	var count int
	err := s.db.QueryRowContext(countCtx, "SELECT COUNT(*) FROM DimDate").Scan(&count)
	cancel()
	if err != nil {
		return 0, errors.SQLError("Failed to count DimDate rows", "SELECT COUNT(*) FROM DimDate", err)
	}
	if count > 0 {
		s.logf("DimDate already holds %d rows, skipping generation", count)
		return 0, nil
	}

	inserted := 0
	start := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		row := dateRow(d)

		execCtx, cancel := s.getContext(ctx)
		_, err := s.db.ExecContext(execCtx, insertDateSQL,
			row.DateKey, row.Date, row.Year, row.Quarter, row.Month,
			row.Day, row.MonthName, row.DayOfWeek, row.IsWeekend)
		cancel()
		if err != nil {
			return inserted, errors.SQLError(
				fmt.Sprintf("Failed to insert date %d", row.DateKey), insertDateSQL, err)
		}
		inserted++
	}

	return inserted, nil
}

// DateRow is one generated date-dimension member.
type DateRow struct {
	DateKey   int
	Date      time.Time
	Year      int
	Quarter   int
	Month     int
	Day       int
	MonthName string
	DayOfWeek string
	IsWeekend bool
}

func dateRow(d time.Time) DateRow {
	wd := d.Weekday()
	return DateRow{
		DateKey:   DateKey(d),
		Date:      d,
		Year:      d.Year(),
		Quarter:   (int(d.Month())-1)/3 + 1,
		Month:     int(d.Month()),
		Day:       d.Day(),
		MonthName: d.Month().String(),
		DayOfWeek: wd.String(),
		IsWeekend: wd == time.Saturday || wd == time.Sunday,
	}
}

// DateKey renders a date as its YYYYMMDD dimension key.
func DateKey(d time.Time) int {
	return d.Year()*10000 + int(d.Month())*100 + d.Day()
}
